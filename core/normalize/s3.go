package normalize

import (
	"github.com/santoshpalla27/aws-frontend-estimation/core/decode"
)

// s3StorageClasses maps vendor volume types to component names. Classes
// outside this table are rejected, not defaulted.
var s3StorageClasses = map[string]string{
	"Standard":                              "storage_standard",
	"Standard - Infrequent Access":          "storage_standard_ia",
	"One Zone - Infrequent Access":          "storage_onezone_ia",
	"Intelligent-Tiering Frequent Access":   "storage_intelligent_frequent",
	"Intelligent-Tiering Infrequent Access": "storage_intelligent_infrequent",
}

var s3RequestGroups = map[string]string{
	"S3-API-Tier1": "requests_tier1",
	"S3-API-Tier2": "requests_tier2",
}

// S3Processor emits storage-class, request-group, and outbound data
// transfer components.
type S3Processor struct{}

// Name implements Processor
func (S3Processor) Name() string { return "s3" }

// ComponentKey implements Processor
func (S3Processor) ComponentKey(sku decode.RetainedSKU) (string, bool) {
	switch sku.ProductFamily {
	case "Storage":
		key, ok := s3StorageClasses[attr(sku, "volumeType")]
		return key, ok

	case "API Request":
		key, ok := s3RequestGroups[attr(sku, "group")]
		return key, ok

	case "Data Transfer":
		if !attrIs(sku, "transferType", "AWS Outbound") {
			return "", false
		}
		if !attrIs(sku, "toLocationType", "Internet") {
			return "", false
		}
		return "transfer_out", true

	default:
		return "", false
	}
}

// Required implements Processor
func (S3Processor) Required() []string {
	return []string{"storage_standard"}
}
