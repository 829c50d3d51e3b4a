package normalize

import (
	"github.com/santoshpalla27/aws-frontend-estimation/core/decode"
)

// DynamoDBProcessor emits on-demand read, on-demand write, and table
// storage components. Provisioned-capacity SKUs are rejected.
type DynamoDBProcessor struct{}

// Name implements Processor
func (DynamoDBProcessor) Name() string { return "dynamodb" }

// ComponentKey implements Processor
func (DynamoDBProcessor) ComponentKey(sku decode.RetainedSKU) (string, bool) {
	switch sku.ProductFamily {
	case "Amazon DynamoDB PayPerRequest Throughput":
		switch attr(sku, "group") {
		case "DDB-ReadUnits":
			return "read_request_units", true
		case "DDB-WriteUnits":
			return "write_request_units", true
		}
		return "", false

	case "Database Storage":
		if !attrIs(sku, "volumeType", "Amazon DynamoDB - Indexed DataStore") {
			return "", false
		}
		return "storage", true

	default:
		return "", false
	}
}

// Required implements Processor
func (DynamoDBProcessor) Required() []string { return nil }
