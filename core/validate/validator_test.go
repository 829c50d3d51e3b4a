package validate

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/santoshpalla27/aws-frontend-estimation/core/determinism"
	"github.com/santoshpalla27/aws-frontend-estimation/core/pricing"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func envelope(service, version, components string) []byte {
	return []byte(fmt.Sprintf(`{
  "service": %q,
  "region": "us-west-2",
  "currency": "USD",
  "version": %q,
  "lastUpdated": "2024-04-19T22:27:53Z",
  "components": %s
}`, service, version, components))
}

const validComponents = `{
  "requests_tier1": {"rate": 0.000005, "unit": "request"},
  "storage_standard": [
    {"rate": 0.023, "unit": "gb_month", "upTo": 51200},
    {"rate": 0.022, "unit": "gb_month", "upTo": 512000},
    {"rate": 0.021, "unit": "gb_month", "upTo": "Infinity"}
  ]
}`

func TestCheckAcceptsCanonicalSnapshot(t *testing.T) {
	v := New()
	if err := v.Check("s3", envelope("s3", "1.3.0", validComponents)); err != nil {
		t.Fatalf("canonical snapshot rejected: %v", err)
	}
}

func TestCheckAllowsEmptyVersionBeforeStamping(t *testing.T) {
	v := New()
	if err := v.Check("s3", envelope("s3", "", validComponents)); err != nil {
		t.Fatalf("pre-stamp snapshot rejected: %v", err)
	}
}

func TestCheckAcceptsNormalizerOutput(t *testing.T) {
	sp := &pricing.ServicePricing{
		Service:     "ec2",
		Region:      "us-east-1",
		Currency:    "USD",
		LastUpdated: "2024-04-19T22:27:53Z",
		Components: map[string]pricing.Component{
			"m5.large": pricing.Simple(pricing.MustRate("0.096"), pricing.UnitHour),
			"ebs_gp3":  pricing.Simple(pricing.MustRate("0.08"), pricing.UnitGBMonth),
			"transfer_out": pricing.Tiered([]pricing.Tier{
				{UpTo: pricing.BoundAt(mustDecimal(t, "10240")), Rate: pricing.MustRate("0.09"), Unit: pricing.UnitGB},
				{UpTo: pricing.Unbounded(), Rate: pricing.MustRate("0.085"), Unit: pricing.UnitGB},
			}),
		},
	}

	data, err := determinism.MarshalCanonical(sp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := New().Check("ec2", data); err != nil {
		t.Fatalf("normalizer output rejected: %v\n%s", err, data)
	}
}

func TestCheckRejectsMalformedJSON(t *testing.T) {
	err := New().Check("s3", []byte(`{"service": "s3",`))
	if !errors.IsType(err, errors.TypeParsing) {
		t.Fatalf("expected PARSING_ERROR, got %v", err)
	}
}

func TestCheckRejectsNonObjectRoot(t *testing.T) {
	err := New().Check("s3", []byte(`["s3"]`))
	if !errors.IsType(err, errors.TypeSchema) {
		t.Fatalf("expected SCHEMA_VIOLATION, got %v", err)
	}
}

func TestCheckRejectsUnknownTopLevelKey(t *testing.T) {
	doc := []byte(`{
  "service": "s3",
  "region": "us-west-2",
  "currency": "USD",
  "version": "1.0.0",
  "lastUpdated": "2024-04-19T22:27:53Z",
  "publisher": "aws",
  "components": ` + validComponents + `
}`)
	err := New().Check("s3", doc)
	if !errors.IsType(err, errors.TypeSchema) {
		t.Fatalf("expected SCHEMA_VIOLATION, got %v", err)
	}
}

func TestCheckRejectsMissingTopLevelKey(t *testing.T) {
	doc := []byte(`{
  "service": "s3",
  "region": "us-west-2",
  "currency": "USD",
  "version": "1.0.0",
  "components": ` + validComponents + `
}`)
	err := New().Check("s3", doc)
	if !errors.IsType(err, errors.TypeSchema) {
		t.Fatalf("expected SCHEMA_VIOLATION for the dropped lastUpdated, got %v", err)
	}
}

func TestCheckRejectsServiceMismatch(t *testing.T) {
	err := New().Check("ec2", envelope("s3", "1.0.0", validComponents))
	if !errors.IsType(err, errors.TypeSchema) {
		t.Fatalf("expected SCHEMA_VIOLATION, got %v", err)
	}
}

func TestCheckRejectsEmptyComponents(t *testing.T) {
	err := New().Check("s3", envelope("s3", "1.0.0", `{}`))
	if !errors.IsType(err, errors.TypeSchema) {
		t.Fatalf("expected SCHEMA_VIOLATION, got %v", err)
	}
}

func TestCheckRejectsNonNumberRates(t *testing.T) {
	cases := []struct {
		name string
		comp string
	}{
		{"string rate", `{"compute": {"rate": "0.023", "unit": "hour"}}`},
		{"null rate", `{"compute": {"rate": null, "unit": "hour"}}`},
		{"boolean rate", `{"compute": {"rate": true, "unit": "hour"}}`},
	}
	for _, tc := range cases {
		err := New().Check("ec2", envelope("ec2", "1.0.0", tc.comp))
		if !errors.IsType(err, errors.TypeSchema) {
			t.Errorf("%s: expected SCHEMA_VIOLATION, got %v", tc.name, err)
		}
	}
}

func TestCheckRejectsNegativeRate(t *testing.T) {
	comp := `{"compute": {"rate": -0.01, "unit": "hour"}}`
	err := New().Check("ec2", envelope("ec2", "1.0.0", comp))
	if !errors.IsType(err, errors.TypeNumericAnomaly) {
		t.Fatalf("expected NUMERIC_ANOMALY, got %v", err)
	}
	domainErr := err.(*errors.Error)
	if got := domainErr.Context["component"]; got != "components/compute/rate" {
		t.Errorf("anomaly path = %v, expected components/compute/rate", got)
	}
}

func TestCheckRejectsNonPositiveTierBound(t *testing.T) {
	comp := `{"storage": [
    {"rate": 0.023, "unit": "gb_month", "upTo": 0},
    {"rate": 0.021, "unit": "gb_month", "upTo": "Infinity"}
  ]}`
	err := New().Check("s3", envelope("s3", "1.0.0", comp))
	if !errors.IsType(err, errors.TypeNumericAnomaly) {
		t.Fatalf("expected NUMERIC_ANOMALY for the zero bound, got %v", err)
	}
}

func TestCheckRejectsUnknownUnit(t *testing.T) {
	comp := `{"compute": {"rate": 0.096, "unit": "parsecs"}}`
	err := New().Check("ec2", envelope("ec2", "1.0.0", comp))
	if !errors.IsType(err, errors.TypeSchema) {
		t.Fatalf("expected SCHEMA_VIOLATION, got %v", err)
	}
}

func TestCheckRejectsExtraKeyInTier(t *testing.T) {
	comp := `{"storage": [
    {"rate": 0.023, "unit": "gb_month", "upTo": 51200, "note": "cheap"},
    {"rate": 0.021, "unit": "gb_month", "upTo": "Infinity"}
  ]}`
	err := New().Check("s3", envelope("s3", "1.0.0", comp))
	if !errors.IsType(err, errors.TypeSchema) {
		t.Fatalf("expected SCHEMA_VIOLATION, got %v", err)
	}
}

func TestCheckRejectsUpToOnSimpleComponent(t *testing.T) {
	comp := `{"compute": {"rate": 0.096, "unit": "hour", "upTo": 100}}`
	err := New().Check("ec2", envelope("ec2", "1.0.0", comp))
	if !errors.IsType(err, errors.TypeSchema) {
		t.Fatalf("expected SCHEMA_VIOLATION, got %v", err)
	}
}

func TestCheckRejectsEmptyTierList(t *testing.T) {
	err := New().Check("s3", envelope("s3", "1.0.0", `{"storage": []}`))
	if !errors.IsType(err, errors.TypeSchema) {
		t.Fatalf("expected SCHEMA_VIOLATION, got %v", err)
	}
}

func TestCheckRejectsNonAscendingTiers(t *testing.T) {
	cases := []struct {
		name string
		comp string
	}{
		{
			"descending bounds",
			`{"storage": [
    {"rate": 0.023, "unit": "gb_month", "upTo": 512000},
    {"rate": 0.022, "unit": "gb_month", "upTo": 51200},
    {"rate": 0.021, "unit": "gb_month", "upTo": "Infinity"}
  ]}`,
		},
		{
			"duplicate bounds",
			`{"storage": [
    {"rate": 0.023, "unit": "gb_month", "upTo": 51200},
    {"rate": 0.022, "unit": "gb_month", "upTo": 51200},
    {"rate": 0.021, "unit": "gb_month", "upTo": "Infinity"}
  ]}`,
		},
	}
	for _, tc := range cases {
		err := New().Check("s3", envelope("s3", "1.0.0", tc.comp))
		if !errors.IsType(err, errors.TypeTierContinuity) {
			t.Errorf("%s: expected TIER_CONTINUITY_VIOLATION, got %v", tc.name, err)
		}
	}
}

func TestCheckRejectsMissingInfinityTerminator(t *testing.T) {
	comp := `{"storage": [
    {"rate": 0.023, "unit": "gb_month", "upTo": 51200},
    {"rate": 0.022, "unit": "gb_month", "upTo": 512000}
  ]}`
	err := New().Check("s3", envelope("s3", "1.0.0", comp))
	if !errors.IsType(err, errors.TypeTierContinuity) {
		t.Fatalf("expected TIER_CONTINUITY_VIOLATION, got %v", err)
	}
}

func TestCheckRejectsEarlyInfinity(t *testing.T) {
	comp := `{"storage": [
    {"rate": 0.023, "unit": "gb_month", "upTo": "Infinity"},
    {"rate": 0.021, "unit": "gb_month", "upTo": "Infinity"}
  ]}`
	err := New().Check("s3", envelope("s3", "1.0.0", comp))
	if !errors.IsType(err, errors.TypeTierContinuity) {
		t.Fatalf("expected TIER_CONTINUITY_VIOLATION, got %v", err)
	}
}

func TestCheckRejectsMixedUnitsWithinComponent(t *testing.T) {
	comp := `{"storage": [
    {"rate": 0.023, "unit": "gb_month", "upTo": 51200},
    {"rate": 0.021, "unit": "gb", "upTo": "Infinity"}
  ]}`
	err := New().Check("s3", envelope("s3", "1.0.0", comp))
	if !errors.IsType(err, errors.TypeTierContinuity) {
		t.Fatalf("expected TIER_CONTINUITY_VIOLATION, got %v", err)
	}
}
