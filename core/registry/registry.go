// Package registry defines the service table that drives a pipeline
// run: which services to fetch, from where, and which processor owns
// each one. The registry is an explicit immutable value constructed
// once and injected into the orchestrator.
package registry

import (
	"github.com/santoshpalla27/aws-frontend-estimation/core/determinism"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
)

// ServiceDefinition describes one vendor service feed
type ServiceDefinition struct {
	// Code is the short pipeline identifier, e.g. "ec2"
	Code string `json:"code"`

	// Name is the vendor display name
	Name string `json:"name"`

	// URL is the offer file location. Relative URLs are resolved
	// against the configured pricing endpoint at fetch time.
	URL string `json:"url"`

	// Processor names the normalization strategy bound to this service
	Processor string `json:"processor"`

	// Enabled excludes the service from runs when false
	Enabled bool `json:"enabled"`
}

// Registry is the immutable service table
type Registry struct {
	services map[string]ServiceDefinition
	codes    []string
}

// New builds a registry from definitions, validating each one
func New(defs []ServiceDefinition) (*Registry, error) {
	services := make(map[string]ServiceDefinition, len(defs))

	for _, def := range defs {
		if def.Code == "" {
			return nil, errors.Config("service definition with empty code")
		}
		if _, dup := services[def.Code]; dup {
			return nil, errors.Newf(errors.TypeConfig, "duplicate service code %q", def.Code)
		}
		if def.Name == "" {
			return nil, errors.Newf(errors.TypeConfig, "service %q has no name", def.Code)
		}
		if def.URL == "" {
			return nil, errors.Newf(errors.TypeConfig, "service %q has no url", def.Code)
		}
		if def.Processor == "" {
			return nil, errors.Newf(errors.TypeConfig, "service %q has no processor", def.Code)
		}
		services[def.Code] = def
	}

	return &Registry{services: services, codes: determinism.SortedKeys(services)}, nil
}

// Lookup returns the definition for a service code
func (r *Registry) Lookup(code string) (ServiceDefinition, bool) {
	def, ok := r.services[code]
	return def, ok
}

// All returns every definition in code order
func (r *Registry) All() []ServiceDefinition {
	defs := make([]ServiceDefinition, 0, len(r.codes))
	for _, code := range r.codes {
		defs = append(defs, r.services[code])
	}
	return defs
}

// Enabled returns the enabled definitions in code order
func (r *Registry) Enabled() []ServiceDefinition {
	defs := make([]ServiceDefinition, 0, len(r.codes))
	for _, code := range r.codes {
		if def := r.services[code]; def.Enabled {
			defs = append(defs, def)
		}
	}
	return defs
}

// EnabledCodes returns the enabled service codes in order
func (r *Registry) EnabledCodes() []string {
	codes := make([]string, 0, len(r.codes))
	for _, def := range r.Enabled() {
		codes = append(codes, def.Code)
	}
	return codes
}

// Len returns the total number of definitions
func (r *Registry) Len() int {
	return len(r.codes)
}

// DefaultDefinitions returns the compiled-in service table
func DefaultDefinitions() []ServiceDefinition {
	return []ServiceDefinition{
		{
			Code:      "ec2",
			Name:      "Amazon Elastic Compute Cloud",
			URL:       "/offers/v1.0/aws/AmazonEC2/current/index.json",
			Processor: "ec2",
			Enabled:   true,
		},
		{
			Code:      "s3",
			Name:      "Amazon Simple Storage Service",
			URL:       "/offers/v1.0/aws/AmazonS3/current/index.json",
			Processor: "s3",
			Enabled:   true,
		},
		{
			Code:      "lambda",
			Name:      "AWS Lambda",
			URL:       "/offers/v1.0/aws/AWSLambda/current/index.json",
			Processor: "lambda",
			Enabled:   true,
		},
		{
			Code:      "dynamodb",
			Name:      "Amazon DynamoDB",
			URL:       "/offers/v1.0/aws/AmazonDynamoDB/current/index.json",
			Processor: "dynamodb",
			Enabled:   true,
		},
		{
			Code:      "vpc",
			Name:      "Amazon Virtual Private Cloud",
			URL:       "/offers/v1.0/aws/AmazonVPC/current/index.json",
			Processor: "vpc",
			Enabled:   true,
		},
		{
			Code:      "apigateway",
			Name:      "Amazon API Gateway",
			URL:       "/offers/v1.0/aws/AmazonApiGateway/current/index.json",
			Processor: "apigateway",
			Enabled:   true,
		},
		{
			Code:      "stepfunctions",
			Name:      "AWS Step Functions",
			URL:       "/offers/v1.0/aws/AWSStepFunctions/current/index.json",
			Processor: "stepfunctions",
			Enabled:   true,
		},
	}
}

// Default returns the registry built from the compiled-in table
func Default() *Registry {
	r, err := New(DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return r
}

// Merge overlays override definitions onto a base table. Overrides
// replace base entries with the same code and append new codes.
func Merge(base, overrides []ServiceDefinition) []ServiceDefinition {
	merged := make([]ServiceDefinition, len(base))
	copy(merged, base)

	index := make(map[string]int, len(base))
	for i, def := range base {
		index[def.Code] = i
	}

	for _, def := range overrides {
		if i, ok := index[def.Code]; ok {
			merged[i] = def
			continue
		}
		index[def.Code] = len(merged)
		merged = append(merged, def)
	}

	return merged
}
