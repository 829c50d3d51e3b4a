package normalize

import (
	"github.com/santoshpalla27/aws-frontend-estimation/core/decode"
)

// LambdaProcessor emits the request count and GB-second duration
// components. Both must be present for the service to price at all.
type LambdaProcessor struct{}

// Name implements Processor
func (LambdaProcessor) Name() string { return "lambda" }

// ComponentKey implements Processor
func (LambdaProcessor) ComponentKey(sku decode.RetainedSKU) (string, bool) {
	switch attr(sku, "group") {
	case "AWS-Lambda-Requests":
		return "requests", true
	case "AWS-Lambda-Duration":
		return "duration", true
	}
	return "", false
}

// Required implements Processor
func (LambdaProcessor) Required() []string {
	return []string{"requests", "duration"}
}
