package diff

import (
	"fmt"
	"sort"
)

// Report aggregates the per-service diffs for one run
type Report struct {
	Services []*ServiceDiff `json:"services"`

	// Counts across all services
	SchemaChanges   int `json:"schemaChanges"`
	PricingChanges  int `json:"pricingChanges"`
	MetadataChanges int `json:"metadataChanges"`
}

// Cause identifies the service that drove the aggregate bump
type Cause struct {
	Service string `json:"service,omitempty"`
	Bump    Bump   `json:"bump"`
	Reason  string `json:"reason"`
}

// NewReport assembles a report over per-service diffs, sorted by
// service code
func NewReport(diffs []*ServiceDiff) *Report {
	sorted := make([]*ServiceDiff, len(diffs))
	copy(sorted, diffs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Service < sorted[j].Service
	})

	r := &Report{Services: sorted}
	for _, sd := range sorted {
		for _, c := range sd.Changes {
			switch c.Kind {
			case KindSchema:
				r.SchemaChanges++
			case KindPricing:
				r.PricingChanges++
			case KindMetadata:
				r.MetadataChanges++
			}
		}
	}
	return r
}

// MaxBump returns the highest-severity bump across all services, patch
// when the report is empty
func (r *Report) MaxBump() Bump {
	max := BumpPatch
	for _, sd := range r.Services {
		if sd.Bump > max {
			max = sd.Bump
		}
	}
	return max
}

// BumpCause names the first service, in code order, whose diff reaches
// the aggregate bump, together with the change that drove it
func (r *Report) BumpCause() Cause {
	max := r.MaxBump()
	for _, sd := range r.Services {
		if sd.Bump != max {
			continue
		}
		return Cause{Service: sd.Service, Bump: max, Reason: reasonFor(sd, max)}
	}
	return Cause{Bump: max, Reason: "no services processed"}
}

func reasonFor(sd *ServiceDiff, bump Bump) string {
	if sd.NewService {
		return "new service"
	}
	want := KindMetadata
	switch bump {
	case BumpMajor:
		want = KindSchema
	case BumpMinor:
		want = KindPricing
	}
	for _, c := range sd.Changes {
		if c.Kind == want {
			return fmt.Sprintf("%s change at %s", c.Kind, c.Path)
		}
	}
	if len(sd.Changes) == 0 {
		return "no changes"
	}
	first := sd.Changes[0]
	return fmt.Sprintf("%s change at %s", first.Kind, first.Path)
}
