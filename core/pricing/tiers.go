package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
)

// RawRange is one vendor price dimension before tier expansion
type RawRange struct {
	// BeginRange is the vendor quantity where the range starts, "0" first
	BeginRange string

	// EndRange is the vendor quantity where it ends, "Inf" for unbounded
	EndRange string

	// Rate is the already-parsed price for this range
	Rate Rate

	// Unit is the already-mapped canonical unit
	Unit CanonicalUnit
}

type expandedRange struct {
	begin decimal.Decimal
	end   TierBound
	rate  Rate
	unit  CanonicalUnit
}

// ExpandTiers converts vendor begin/end ranges into an ascending tier
// sequence terminated by the Infinity bound. A component with a single
// unbounded range is emitted as a SimpleRate; multi-range components
// become tier lists. Gaps, overlaps, or a missing terminal range fail
// the run.
func ExpandTiers(service, component string, ranges []RawRange) (Component, error) {
	if len(ranges) == 0 {
		return Component{}, errors.TierContinuity(service, component, "no price dimensions")
	}

	expanded := make([]expandedRange, 0, len(ranges))
	for _, r := range ranges {
		begin, err := decimal.NewFromString(r.BeginRange)
		if err != nil {
			return Component{}, errors.TierContinuity(service, component,
				fmt.Sprintf("unparseable beginRange %q", r.BeginRange))
		}

		var end TierBound
		switch r.EndRange {
		case "Inf", "Infinity":
			end = Unbounded()
		default:
			v, err := decimal.NewFromString(r.EndRange)
			if err != nil {
				return Component{}, errors.TierContinuity(service, component,
					fmt.Sprintf("unparseable endRange %q", r.EndRange))
			}
			end = BoundAt(v)
		}

		expanded = append(expanded, expandedRange{begin: begin, end: end, rate: r.Rate, unit: r.Unit})
	}

	for _, e := range expanded {
		if e.unit != expanded[0].unit {
			return Component{}, errors.TierContinuity(service, component,
				fmt.Sprintf("mixed units %s and %s", expanded[0].unit, e.unit))
		}
	}

	sortRanges(expanded)

	if !expanded[0].begin.IsZero() {
		return Component{}, errors.TierContinuity(service, component,
			fmt.Sprintf("first range begins at %s, expected 0", expanded[0].begin))
	}

	tiers := make([]Tier, 0, len(expanded))
	for i, e := range expanded {
		last := i == len(expanded)-1

		if e.end.IsInfinite() && !last {
			return Component{}, errors.TierContinuity(service, component,
				"unbounded range before the final range")
		}
		if !e.end.IsInfinite() {
			if last {
				return Component{}, errors.TierContinuity(service, component,
					fmt.Sprintf("final range ends at %s, expected Inf", e.end.Value()))
			}
			if e.end.Value().LessThanOrEqual(e.begin) {
				return Component{}, errors.TierContinuity(service, component,
					fmt.Sprintf("range [%s, %s] is empty or inverted", e.begin, e.end.Value()))
			}
			next := expanded[i+1]
			if !next.begin.Equal(e.end.Value()) {
				return Component{}, errors.TierContinuity(service, component,
					fmt.Sprintf("range ending at %s is followed by one beginning at %s", e.end.Value(), next.begin))
			}
		}

		tiers = append(tiers, Tier{UpTo: e.end, Rate: e.rate, Unit: e.unit})
	}

	if len(tiers) == 1 {
		return Simple(tiers[0].Rate, tiers[0].Unit), nil
	}
	return Tiered(tiers), nil
}

func sortRanges(ranges []expandedRange) {
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].begin.LessThan(ranges[j].begin)
	})
}

// ValidateTiers checks an already-expanded tier sequence: non-empty,
// strictly ascending unique boundaries, exactly one Infinity bound, last.
func ValidateTiers(service, component string, tiers []Tier) error {
	if len(tiers) == 0 {
		return errors.TierContinuity(service, component, "empty tier sequence")
	}

	infiniteSeen := false
	prev := decimal.Zero
	for i, tier := range tiers {
		last := i == len(tiers)-1

		if tier.UpTo.IsInfinite() {
			if infiniteSeen {
				return errors.TierContinuity(service, component, "more than one Infinity bound")
			}
			infiniteSeen = true
			if !last {
				return errors.TierContinuity(service, component, "Infinity bound before the final tier")
			}
			continue
		}

		if i > 0 && tier.UpTo.Value().LessThanOrEqual(prev) {
			return errors.TierContinuity(service, component,
				fmt.Sprintf("bound %s does not ascend past %s", tier.UpTo.Value(), prev))
		}
		if tier.UpTo.Value().LessThanOrEqual(decimal.Zero) {
			return errors.TierContinuity(service, component,
				fmt.Sprintf("bound %s is not positive", tier.UpTo.Value()))
		}
		prev = tier.UpTo.Value()
	}

	if !infiniteSeen {
		return errors.TierContinuity(service, component, "missing terminal Infinity bound")
	}
	return nil
}

// TieredCost is the reference cost semantics for a tier sequence: the
// sum over tiers, in order, of the portion of quantity falling in that
// tier's width times the tier rate. The pipeline never calls this in
// the run path; downstream consumers and tests do.
func TieredCost(tiers []Tier, quantity decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	remaining := quantity
	prev := decimal.Zero

	for _, tier := range tiers {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		var width decimal.Decimal
		if tier.UpTo.IsInfinite() {
			width = remaining
		} else {
			width = tier.UpTo.Value().Sub(prev)
			prev = tier.UpTo.Value()
		}

		take := width
		if remaining.LessThan(width) {
			take = remaining
		}

		total = total.Add(take.Mul(tier.Rate.Decimal()))
		remaining = remaining.Sub(take)
	}

	return total
}

// Cost computes the reference cost of a quantity against this component
func (c Component) Cost(quantity decimal.Decimal) decimal.Decimal {
	if c.tiers != nil {
		return TieredCost(c.tiers, quantity)
	}
	if c.simple != nil {
		return quantity.Mul(c.simple.Rate.Decimal())
	}
	return decimal.Zero
}
