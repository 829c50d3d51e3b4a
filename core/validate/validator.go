// Package validate re-checks normalized snapshots independently of the
// normalizer: schema conformance against the closed per-service shape,
// numeric sanity of every rate-like leaf, and tier continuity.
package validate

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/santoshpalla27/aws-frontend-estimation/core/jsonval"
	"github.com/santoshpalla27/aws-frontend-estimation/core/pricing"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/logging"
)

// snapshotFields is the closed top-level key set of a normalized
// snapshot, with the required kind of each value
var snapshotFields = []struct {
	key  string
	kind jsonval.Kind
}{
	{"service", jsonval.KindString},
	{"region", jsonval.KindString},
	{"currency", jsonval.KindString},
	{"version", jsonval.KindString},
	{"lastUpdated", jsonval.KindString},
	{"components", jsonval.KindObject},
}

// Validator verifies serialized snapshots before they may advance
type Validator struct {
	log *zap.Logger
}

// New creates a validator
func New() *Validator {
	return &Validator{log: logging.Component("validate")}
}

// Check parses a serialized snapshot and applies the schema, numeric,
// and tier continuity checks in order. The snapshot arrives before the
// versioner stamps it, so an empty version string is accepted.
func (v *Validator) Check(service string, data []byte) error {
	tree, err := jsonval.Parse(data)
	if err != nil {
		return errors.Parsing(fmt.Sprintf("snapshot for %s is not valid JSON", service), err)
	}

	if err := v.checkSchema(service, tree); err != nil {
		return err
	}
	if err := v.checkNumbers(service, "", tree); err != nil {
		return err
	}
	if err := v.checkTiers(service, tree); err != nil {
		return err
	}

	v.log.Debug("snapshot passed validation", zap.String("service", service))
	return nil
}

// checkSchema enforces the closed field sets: the six top-level keys,
// {rate, unit} for simple components, {upTo, rate, unit} for tiers.
func (v *Validator) checkSchema(service string, tree *jsonval.Value) error {
	if tree.Kind() != jsonval.KindObject {
		return schemaErr(service, "/", "object", tree.Kind().String())
	}

	known := make(map[string]jsonval.Kind, len(snapshotFields))
	for _, f := range snapshotFields {
		known[f.key] = f.kind
	}
	for _, key := range tree.Keys() {
		if _, ok := known[key]; !ok {
			return errors.SchemaViolation(service, key, "unexpected key")
		}
	}
	for _, f := range snapshotFields {
		field, ok := tree.Field(f.key)
		if !ok {
			return errors.SchemaViolation(service, f.key, "missing key")
		}
		if field.Kind() != f.kind {
			return schemaErr(service, f.key, f.kind.String(), field.Kind().String())
		}
		// version is stamped at write time and may still be empty here
		if f.kind == jsonval.KindString && f.key != "version" && field.Str() == "" {
			return errors.SchemaViolation(service, f.key, "empty value")
		}
	}

	if top, _ := tree.Field("service"); top.Str() != service {
		return schemaErr(service, "service", service, top.Str())
	}

	components, _ := tree.Field("components")
	if components.Len() == 0 {
		return errors.SchemaViolation(service, "components", "no components")
	}
	for _, name := range components.Keys() {
		comp, _ := components.Field(name)
		if err := v.checkComponentSchema(service, "components/"+name, comp); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkComponentSchema(service, path string, comp *jsonval.Value) error {
	switch comp.Kind() {
	case jsonval.KindObject:
		return v.checkRateObject(service, path, comp, false)

	case jsonval.KindArray:
		if comp.Len() == 0 {
			return errors.SchemaViolation(service, path, "empty tier list")
		}
		for i, tier := range comp.Items() {
			tierPath := fmt.Sprintf("%s/%d", path, i)
			if tier.Kind() != jsonval.KindObject {
				return schemaErr(service, tierPath, "object", tier.Kind().String())
			}
			if err := v.checkRateObject(service, tierPath, tier, true); err != nil {
				return err
			}
		}
		return nil

	default:
		return schemaErr(service, path, "object or array", comp.Kind().String())
	}
}

// checkRateObject verifies one simple component or one tier entry.
// Tiers carry an upTo bound; simple components must not.
func (v *Validator) checkRateObject(service, path string, obj *jsonval.Value, tiered bool) error {
	want := map[string]bool{"rate": true, "unit": true}
	if tiered {
		want["upTo"] = true
	}
	for _, key := range obj.Keys() {
		if !want[key] {
			return errors.SchemaViolation(service, path+"/"+key, "unexpected key")
		}
	}

	rate, ok := obj.Field("rate")
	if !ok {
		return errors.SchemaViolation(service, path+"/rate", "missing key")
	}
	if rate.Kind() != jsonval.KindNumber {
		return schemaErr(service, path+"/rate", "number", rate.Kind().String())
	}

	unit, ok := obj.Field("unit")
	if !ok {
		return errors.SchemaViolation(service, path+"/unit", "missing key")
	}
	if unit.Kind() != jsonval.KindString {
		return schemaErr(service, path+"/unit", "string", unit.Kind().String())
	}
	if !pricing.CanonicalUnit(unit.Str()).Valid() {
		return errors.SchemaViolation(service, path+"/unit",
			fmt.Sprintf("%q is not a canonical unit", unit.Str()))
	}

	if tiered {
		upTo, ok := obj.Field("upTo")
		if !ok {
			return errors.SchemaViolation(service, path+"/upTo", "missing key")
		}
		switch upTo.Kind() {
		case jsonval.KindNumber:
		case jsonval.KindString:
			if upTo.Str() != "Infinity" {
				return schemaErr(service, path+"/upTo", "number or \"Infinity\"", upTo.Str())
			}
		default:
			return schemaErr(service, path+"/upTo", "number or \"Infinity\"", upTo.Kind().String())
		}
	}
	return nil
}

// checkNumbers walks the whole tree and verifies every rate-like leaf
// parses as a finite decimal: rates must be non-negative, finite tier
// bounds strictly positive.
func (v *Validator) checkNumbers(service, path string, node *jsonval.Value) error {
	switch node.Kind() {
	case jsonval.KindObject:
		for _, key := range node.Keys() {
			child, _ := node.Field(key)
			childPath := joinPath(path, key)
			if key == "rate" || key == "upTo" {
				if err := v.checkRateLeaf(service, childPath, key, child); err != nil {
					return err
				}
			}
			if err := v.checkNumbers(service, childPath, child); err != nil {
				return err
			}
		}
	case jsonval.KindArray:
		for i, item := range node.Items() {
			if err := v.checkNumbers(service, fmt.Sprintf("%s/%d", path, i), item); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

func (v *Validator) checkRateLeaf(service, path, key string, node *jsonval.Value) error {
	if key == "upTo" && node.Kind() == jsonval.KindString && node.Str() == "Infinity" {
		return nil
	}
	if node.Kind() != jsonval.KindNumber {
		return errors.NumericAnomaly(service, path,
			fmt.Sprintf("expected a number, got %s", node.Kind()))
	}
	d, err := decimal.NewFromString(node.NumberLiteral())
	if err != nil {
		return errors.NumericAnomaly(service, path,
			fmt.Sprintf("unparsable number %q", node.NumberLiteral()))
	}
	if key == "rate" && d.IsNegative() {
		return errors.NumericAnomaly(service, path, fmt.Sprintf("negative rate %s", d))
	}
	if key == "upTo" && d.Sign() <= 0 {
		return errors.NumericAnomaly(service, path, fmt.Sprintf("tier bound %s is not positive", d))
	}
	return nil
}

// checkTiers verifies every tiered component: strictly ascending unique
// bounds, exactly one Infinity sentinel in the final position, and one
// unit across the whole component.
func (v *Validator) checkTiers(service string, tree *jsonval.Value) error {
	components, ok := tree.Field("components")
	if !ok {
		return nil
	}
	for _, name := range components.Keys() {
		comp, _ := components.Field(name)
		if comp.Kind() != jsonval.KindArray {
			continue
		}

		var prev decimal.Decimal
		unit := ""
		for i, tier := range comp.Items() {
			u, _ := tier.Field("unit")
			if unit == "" {
				unit = u.Str()
			} else if u.Str() != unit {
				return errors.TierContinuity(service, name,
					fmt.Sprintf("tier %d is priced in %s, earlier tiers in %s", i, u.Str(), unit))
			}

			upTo, _ := tier.Field("upTo")
			last := i == comp.Len()-1
			if upTo.Kind() == jsonval.KindString {
				if !last {
					return errors.TierContinuity(service, name,
						fmt.Sprintf("Infinity bound at tier %d of %d", i, comp.Len()))
				}
				continue
			}
			if last {
				return errors.TierContinuity(service, name,
					fmt.Sprintf("final tier bound is %s, not Infinity", upTo.NumberLiteral()))
			}

			bound, err := decimal.NewFromString(upTo.NumberLiteral())
			if err != nil {
				return errors.TierContinuity(service, name,
					fmt.Sprintf("unparsable bound %q at tier %d", upTo.NumberLiteral(), i))
			}
			if i > 0 && bound.Cmp(prev) <= 0 {
				return errors.TierContinuity(service, name,
					fmt.Sprintf("bound %s at tier %d does not ascend past %s", bound, i, prev))
			}
			prev = bound
		}
	}
	return nil
}

func schemaErr(service, path, expected, actual string) *errors.Error {
	return errors.SchemaViolation(service, path,
		fmt.Sprintf("expected %s, got %s", expected, actual)).
		WithContext("expected", expected).
		WithContext("actual", actual)
}
