package pricing

import (
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
)

// vendorUnits is the exact-match table from vendor unit strings to the
// canonical set. Unmapped strings are fatal for the run, never defaulted.
var vendorUnits = map[string]CanonicalUnit{
	"Hrs":   UnitHour,
	"Hours": UnitHour,
	"Hour":  UnitHour,

	"GB":       UnitGB,
	"Gigabyte": UnitGB,

	"GB-Mo":    UnitGBMonth,
	"GB-Month": UnitGBMonth,
	"GB-month": UnitGBMonth,

	"GB-Second":        UnitGBSecond,
	"GB-Seconds":       UnitGBSecond,
	"Lambda-GB-Second": UnitGBSecond,

	"Requests":          UnitRequest,
	"Request":           UnitRequest,
	"API Calls":         UnitRequest,
	"ReadRequestUnits":  UnitRequest,
	"WriteRequestUnits": UnitRequest,

	"1M Requests":      UnitMillionRequests,
	"Million Requests": UnitMillionRequests,

	"StateTransitions": UnitTransition,
	"StateTransition":  UnitTransition,

	"Quantity": UnitFlat,
	"Fee":      UnitFlat,

	"vCPU-Hours": UnitVCPUHour,
	"vCPU-Hr":    UnitVCPUHour,

	"Second":  UnitSecond,
	"Seconds": UnitSecond,

	"Minute":  UnitMinute,
	"Minutes": UnitMinute,

	"IOPS-Mo":    UnitIOPSMonth,
	"IOPS-Month": UnitIOPSMonth,
}

// MapUnit resolves a vendor unit string to its canonical unit. The match
// is exact; service and SKU identify the offending entry on failure.
func MapUnit(service, sku, vendorUnit string) (CanonicalUnit, error) {
	unit, ok := vendorUnits[vendorUnit]
	if !ok {
		return "", errors.UnmappableUnit(service, sku, vendorUnit)
	}
	return unit, nil
}
