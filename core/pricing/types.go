// Package pricing defines the canonical normalized pricing model.
// Every rate the pipeline emits uses these types; nothing outside the
// closed unit set may appear in output.
package pricing

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// CanonicalUnit is one of the closed set of normalized billing units
type CanonicalUnit string

const (
	UnitHour            CanonicalUnit = "hour"
	UnitGB              CanonicalUnit = "gb"
	UnitGBMonth         CanonicalUnit = "gb_month"
	UnitGBSecond        CanonicalUnit = "gb_second"
	UnitRequest         CanonicalUnit = "request"
	UnitMillionRequests CanonicalUnit = "million_requests"
	UnitTransition      CanonicalUnit = "transition"
	UnitFlat            CanonicalUnit = "flat"
	UnitVCPUHour        CanonicalUnit = "vcpu_hour"
	UnitSecond          CanonicalUnit = "second"
	UnitMinute          CanonicalUnit = "minute"
	UnitIOPSMonth       CanonicalUnit = "iops_month"
)

var canonicalUnits = map[CanonicalUnit]bool{
	UnitHour:            true,
	UnitGB:              true,
	UnitGBMonth:         true,
	UnitGBSecond:        true,
	UnitRequest:         true,
	UnitMillionRequests: true,
	UnitTransition:      true,
	UnitFlat:            true,
	UnitVCPUHour:        true,
	UnitSecond:          true,
	UnitMinute:          true,
	UnitIOPSMonth:       true,
}

// Valid reports whether the unit belongs to the closed canonical set
func (u CanonicalUnit) Valid() bool {
	return canonicalUnits[u]
}

// String returns the unit name
func (u CanonicalUnit) String() string {
	return string(u)
}

// Rate is a monetary rate with full decimal precision.
// NEVER use float64 for rate values; floats reformat and drift.
type Rate struct {
	d decimal.Decimal
}

// NewRate creates a Rate from a decimal
func NewRate(d decimal.Decimal) Rate {
	return Rate{d: d}
}

// ParseRate creates a Rate from its decimal string form
func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	return Rate{d: d}, nil
}

// MustRate creates a Rate or panics; for tables and tests
func MustRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Decimal returns the underlying decimal amount
func (r Rate) Decimal() decimal.Decimal {
	return r.d
}

// String returns the exact decimal string form
func (r Rate) String() string {
	return r.d.String()
}

// IsNegative returns true if the rate is below zero
func (r Rate) IsNegative() bool {
	return r.d.IsNegative()
}

// IsZero returns true if the rate is zero
func (r Rate) IsZero() bool {
	return r.d.IsZero()
}

// Equal compares two rates by numeric value
func (r Rate) Equal(other Rate) bool {
	return r.d.Equal(other.d)
}

// MarshalJSON emits the rate as an unquoted JSON number in its exact
// decimal string form
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string
func (r *Rate) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid rate %q: %w", s, err)
	}
	r.d = d
	return nil
}

// TierBound is the inclusive upper boundary of a pricing tier: a finite
// quantity or the terminal Infinity sentinel.
type TierBound struct {
	infinite bool
	value    decimal.Decimal
}

// BoundAt creates a finite tier bound
func BoundAt(d decimal.Decimal) TierBound {
	return TierBound{value: d}
}

// Unbounded creates the Infinity bound
func Unbounded() TierBound {
	return TierBound{infinite: true}
}

// IsInfinite reports whether this is the terminal bound
func (b TierBound) IsInfinite() bool {
	return b.infinite
}

// Value returns the finite boundary quantity
func (b TierBound) Value() decimal.Decimal {
	return b.value
}

// String returns the boundary in output form
func (b TierBound) String() string {
	if b.infinite {
		return "Infinity"
	}
	return b.value.String()
}

// MarshalJSON emits a JSON number for finite bounds and the string
// "Infinity" for the terminal bound
func (b TierBound) MarshalJSON() ([]byte, error) {
	if b.infinite {
		return []byte(`"Infinity"`), nil
	}
	return []byte(b.value.String()), nil
}

// UnmarshalJSON accepts a JSON number or the string "Infinity"
func (b *TierBound) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == `"Infinity"` {
		b.infinite = true
		b.value = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return fmt.Errorf("invalid tier bound %q: %w", trimmed, err)
	}
	b.infinite = false
	b.value = d
	return nil
}

// Tier is one contiguous quantity range with its own rate
type Tier struct {
	UpTo TierBound     `json:"upTo"`
	Rate Rate          `json:"rate"`
	Unit CanonicalUnit `json:"unit"`
}

// SimpleRate is a single unconditional rate
type SimpleRate struct {
	Rate Rate          `json:"rate"`
	Unit CanonicalUnit `json:"unit"`
}

// Component is one priceable element of a service: either a SimpleRate
// or an ascending tier sequence, fixed per component.
type Component struct {
	simple *SimpleRate
	tiers  []Tier
}

// Simple creates a single-rate component
func Simple(rate Rate, unit CanonicalUnit) Component {
	return Component{simple: &SimpleRate{Rate: rate, Unit: unit}}
}

// Tiered creates a tiered component
func Tiered(tiers []Tier) Component {
	return Component{tiers: tiers}
}

// IsTiered reports whether the component carries a tier sequence
func (c Component) IsTiered() bool {
	return c.tiers != nil
}

// SimpleRate returns the single rate for non-tiered components
func (c Component) SimpleRate() (SimpleRate, bool) {
	if c.simple == nil {
		return SimpleRate{}, false
	}
	return *c.simple, true
}

// Tiers returns the tier sequence for tiered components
func (c Component) Tiers() []Tier {
	return c.tiers
}

// MarshalJSON emits a rate object or a tier array depending on shape
func (c Component) MarshalJSON() ([]byte, error) {
	if c.tiers != nil {
		return json.Marshal(c.tiers)
	}
	if c.simple != nil {
		return json.Marshal(c.simple)
	}
	return nil, fmt.Errorf("component has neither rate nor tiers")
}

// UnmarshalJSON accepts either shape
func (c *Component) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty component")
	}
	if trimmed[0] == '[' {
		var tiers []Tier
		if err := json.Unmarshal(trimmed, &tiers); err != nil {
			return err
		}
		c.tiers = tiers
		c.simple = nil
		return nil
	}
	var simple SimpleRate
	if err := json.Unmarshal(trimmed, &simple); err != nil {
		return err
	}
	c.simple = &simple
	c.tiers = nil
	return nil
}

// ServicePricing is the normalized pricing snapshot for one service in
// one region. Immutable once validated.
type ServicePricing struct {
	// Service is the registry service code
	Service string `json:"service"`

	// Region is the pricing region
	Region string `json:"region"`

	// Currency is the ISO currency code, always extracted, never assumed
	Currency string `json:"currency"`

	// Version is the pipeline version, stamped by the versioner at write time
	Version string `json:"version"`

	// LastUpdated is the vendor document's publication date
	LastUpdated string `json:"lastUpdated"`

	// Components maps component name to its rate shape
	Components map[string]Component `json:"components"`
}
