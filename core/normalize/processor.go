// Package normalize turns retained SKUs into canonical service pricing.
// Each service binds a Processor strategy; the engine applies the shared
// filter, unit mapping, and tier expansion machinery around it.
package normalize

import (
	"github.com/santoshpalla27/aws-frontend-estimation/core/decode"
)

// Processor is the per-service normalization strategy. Implementations
// are pure lookup tables over SKU attributes; all shared mechanics live
// in the engine.
type Processor interface {
	// Name is the processor identifier bound in the registry
	Name() string

	// ComponentKey classifies a retained SKU. The boolean is false when
	// the SKU is rejected by the allow-list; rejection is an expected,
	// counted outcome, never an error.
	ComponentKey(sku decode.RetainedSKU) (string, bool)

	// Required lists component keys that must be present after
	// normalization. A missing required component fails the run.
	Required() []string
}

// DefaultProcessors is the startup-resolved strategy table. Dispatch is
// a map lookup; there is no reflection and no dynamic registration.
func DefaultProcessors() map[string]Processor {
	table := make(map[string]Processor)
	for _, p := range []Processor{
		EC2Processor{},
		S3Processor{},
		LambdaProcessor{},
		DynamoDBProcessor{},
		VPCProcessor{},
		APIGatewayProcessor{},
		StepFunctionsProcessor{},
	} {
		table[p.Name()] = p
	}
	return table
}

// attr returns an attribute value, empty when absent
func attr(sku decode.RetainedSKU, key string) string {
	return sku.Attributes[key]
}

// attrIs reports whether an attribute is present and equals want.
// Absent attributes never match; the allow-list denies by default.
func attrIs(sku decode.RetainedSKU, key, want string) bool {
	got, ok := sku.Attributes[key]
	return ok && got == want
}

// attrIn reports whether an attribute is present and within the set
func attrIn(sku decode.RetainedSKU, key string, allowed ...string) bool {
	got, ok := sku.Attributes[key]
	if !ok {
		return false
	}
	for _, want := range allowed {
		if got == want {
			return true
		}
	}
	return false
}
