package normalize

import (
	"strings"

	"github.com/santoshpalla27/aws-frontend-estimation/core/decode"
)

// EC2Processor emits per-instance-type hourly components and EBS
// volume storage components.
type EC2Processor struct{}

// Name implements Processor
func (EC2Processor) Name() string { return "ec2" }

// ComponentKey implements Processor. Instances pass only the shared
// Linux on-demand allow-list; anything reserved, licensed, or dedicated
// is rejected up front.
func (EC2Processor) ComponentKey(sku decode.RetainedSKU) (string, bool) {
	switch sku.ProductFamily {
	case "Compute Instance":
		if !attrIs(sku, "operatingSystem", "Linux") {
			return "", false
		}
		if !attrIs(sku, "tenancy", "Shared") {
			return "", false
		}
		if !attrIs(sku, "preInstalledSw", "NA") {
			return "", false
		}
		if !attrIs(sku, "capacitystatus", "Used") {
			return "", false
		}
		if attr(sku, "licenseModel") == "Bring your own license" {
			return "", false
		}
		instanceType := attr(sku, "instanceType")
		if instanceType == "" {
			return "", false
		}
		return instanceType, true

	case "Storage":
		volume := attr(sku, "volumeApiName")
		if volume == "" {
			return "", false
		}
		return "ebs_" + strings.ToLower(volume), true

	default:
		return "", false
	}
}

// Required implements Processor
func (EC2Processor) Required() []string { return nil }
