package normalize

import (
	"strings"

	"github.com/santoshpalla27/aws-frontend-estimation/core/decode"
)

// StepFunctionsProcessor emits the standard-workflow state transition
// component. Express workflow SKUs bill by duration and are rejected.
type StepFunctionsProcessor struct{}

// Name implements Processor
func (StepFunctionsProcessor) Name() string { return "stepfunctions" }

// ComponentKey implements Processor
func (StepFunctionsProcessor) ComponentKey(sku decode.RetainedSKU) (string, bool) {
	if !strings.Contains(attr(sku, "usagetype"), "StateTransition") {
		return "", false
	}
	return "state_transitions", true
}

// Required implements Processor
func (StepFunctionsProcessor) Required() []string {
	return []string{"state_transitions"}
}
