package normalize

import (
	"strings"

	"github.com/santoshpalla27/aws-frontend-estimation/core/decode"
)

// VPCProcessor emits NAT gateway components. A NAT gateway always bills
// an hourly charge plus a per-GB processing charge, so both components
// are required.
type VPCProcessor struct{}

// Name implements Processor
func (VPCProcessor) Name() string { return "vpc" }

// ComponentKey implements Processor
func (VPCProcessor) ComponentKey(sku decode.RetainedSKU) (string, bool) {
	if sku.ProductFamily != "NAT Gateway" {
		return "", false
	}
	usage := attr(sku, "usagetype")
	switch {
	case strings.HasSuffix(usage, "NatGateway-Hours"):
		return "nat_gateway_hour", true
	case strings.HasSuffix(usage, "NatGateway-Bytes"):
		return "nat_gateway_gb", true
	}
	return "", false
}

// Required implements Processor
func (VPCProcessor) Required() []string {
	return []string{"nat_gateway_hour", "nat_gateway_gb"}
}
