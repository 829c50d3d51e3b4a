package normalize

import (
	"strings"

	"github.com/santoshpalla27/aws-frontend-estimation/core/decode"
)

// APIGatewayProcessor emits REST and HTTP API request components.
type APIGatewayProcessor struct{}

// Name implements Processor
func (APIGatewayProcessor) Name() string { return "apigateway" }

// ComponentKey implements Processor
func (APIGatewayProcessor) ComponentKey(sku decode.RetainedSKU) (string, bool) {
	if sku.ProductFamily != "API Calls" {
		return "", false
	}
	usage := attr(sku, "usagetype")
	switch {
	case strings.Contains(usage, "ApiGatewayHttpRequest"):
		return "http_requests", true
	case strings.Contains(usage, "ApiGatewayRequest"):
		return "rest_requests", true
	}
	return "", false
}

// Required implements Processor
func (APIGatewayProcessor) Required() []string {
	return []string{"rest_requests"}
}
