package registry

import (
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
)

// LoadFile reads a registry file and merges it over the compiled-in
// table. Each block overrides or adds one service:
//
//	service "ec2" {
//	  name      = "Amazon Elastic Compute Cloud"
//	  url       = "/offers/v1.0/aws/AmazonEC2/current/index.json"
//	  processor = "ec2"
//	  enabled   = true
//	}
//
// A missing file yields the default registry unchanged.
func LoadFile(path string) (*Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrap(errors.TypeConfig, "cannot read registry file", err).
			WithContext("path", path)
	}

	overrides, err := parseDefinitions(src, path)
	if err != nil {
		return nil, err
	}

	return New(Merge(DefaultDefinitions(), overrides))
}

func parseDefinitions(src []byte, filename string) ([]ServiceDefinition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.TypeConfig, "invalid registry file", diags).
			WithContext("path", filename)
	}

	content, _, diags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "service", LabelNames: []string{"code"}},
		},
	})
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.TypeConfig, "invalid registry file", diags).
			WithContext("path", filename)
	}

	defaults := make(map[string]ServiceDefinition)
	for _, def := range DefaultDefinitions() {
		defaults[def.Code] = def
	}

	var defs []ServiceDefinition
	for _, block := range content.Blocks {
		code := block.Labels[0]

		// Start from the compiled-in entry so a block may override a
		// single attribute; new codes start empty.
		def, known := defaults[code]
		if !known {
			def = ServiceDefinition{Code: code, Processor: code, Enabled: true}
		}
		def.Code = code

		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, errors.Wrap(errors.TypeConfig, "invalid service block", diags).
				WithContext("service", code)
		}

		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, errors.Wrap(errors.TypeConfig, "unevaluable attribute", diags).
					WithContext("service", code).
					WithContext("attribute", name)
			}

			switch name {
			case "name":
				s, err := stringValue(code, name, val)
				if err != nil {
					return nil, err
				}
				def.Name = s
			case "url":
				s, err := stringValue(code, name, val)
				if err != nil {
					return nil, err
				}
				def.URL = s
			case "processor":
				s, err := stringValue(code, name, val)
				if err != nil {
					return nil, err
				}
				def.Processor = s
			case "enabled":
				if val.Type() != cty.Bool {
					return nil, errors.Newf(errors.TypeConfig,
						"service %q: enabled must be a bool, got %s", code, val.Type().FriendlyName())
				}
				def.Enabled = val.True()
			default:
				return nil, errors.Newf(errors.TypeConfig,
					"service %q: unknown attribute %q", code, name)
			}
		}

		defs = append(defs, def)
	}

	return defs, nil
}

func stringValue(code, name string, val cty.Value) (string, error) {
	if val.Type() != cty.String {
		return "", errors.Newf(errors.TypeConfig,
			"service %q: %s must be a string, got %s", code, name, val.Type().FriendlyName())
	}
	return val.AsString(), nil
}
