// Package diff compares normalized pricing snapshots.
// Every changed path is classified into schema, pricing, or metadata
// severity, which drives the semantic version bump.
package diff

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/santoshpalla27/aws-frontend-estimation/core/jsonval"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/logging"
)

// Kind classifies a single changed path
type Kind int

const (
	KindSchema   Kind = iota // key added/removed or JSON type changed
	KindPricing              // number-to-number value change
	KindMetadata             // any other difference
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindSchema:
		return "schema"
	case KindPricing:
		return "pricing"
	case KindMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the kind name
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", k.String())), nil
}

// Bump is the semantic version severity of a change set
type Bump int

const (
	BumpPatch Bump = iota
	BumpMinor
	BumpMajor
)

// String returns the bump name
func (b Bump) String() string {
	switch b {
	case BumpMajor:
		return "major"
	case BumpMinor:
		return "minor"
	default:
		return "patch"
	}
}

// MarshalJSON emits the bump name
func (b Bump) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", b.String())), nil
}

// Change is one changed path between the previous and fresh snapshots.
// Old and New hold the compact JSON of each side, empty when absent.
type Change struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
	Old  string `json:"old,omitempty"`
	New  string `json:"new,omitempty"`
}

// ServiceDiff is the classified change set for one service
type ServiceDiff struct {
	Service    string   `json:"service"`
	NewService bool     `json:"newService,omitempty"`
	Bump       Bump     `json:"bump"`
	Changes    []Change `json:"changes"`
}

// Differ computes structural diffs between snapshot trees
type Differ struct {
	log *zap.Logger
}

// New creates a differ
func New() *Differ {
	return &Differ{log: logging.Component("diff")}
}

// Compare walks the previous and fresh snapshots for one service over
// the union of their keys and classifies every difference. An empty
// previous marks a new service, which defaults to a minor bump. The
// top-level version field is stamped after diffing and is not compared.
func (d *Differ) Compare(service string, previous, fresh []byte) (*ServiceDiff, error) {
	sd := &ServiceDiff{Service: service, Changes: []Change{}}

	if len(previous) == 0 {
		sd.NewService = true
		sd.Bump = BumpMinor
		d.log.Info("no previous snapshot, treating as new service",
			zap.String("service", service))
		return sd, nil
	}

	prevTree, err := jsonval.Parse(previous)
	if err != nil {
		return nil, errors.Parsing(fmt.Sprintf("previous snapshot for %s is not valid JSON", service), err)
	}
	freshTree, err := jsonval.Parse(fresh)
	if err != nil {
		return nil, errors.Parsing(fmt.Sprintf("fresh snapshot for %s is not valid JSON", service), err)
	}

	d.compare("", prevTree, freshTree, &sd.Changes)

	sort.Slice(sd.Changes, func(i, j int) bool {
		return sd.Changes[i].Path < sd.Changes[j].Path
	})
	sd.Bump = classify(sd.Changes)

	d.log.Info("compared snapshots",
		zap.String("service", service),
		zap.Int("changes", len(sd.Changes)),
		zap.String("bump", sd.Bump.String()))
	return sd, nil
}

func (d *Differ) compare(path string, old, fresh *jsonval.Value, changes *[]Change) {
	if old.Kind() != fresh.Kind() {
		*changes = append(*changes, Change{
			Path: path, Kind: KindSchema, Old: render(old), New: render(fresh),
		})
		return
	}

	switch old.Kind() {
	case jsonval.KindObject:
		for _, key := range unionKeys(old, fresh) {
			if path == "" && key == "version" {
				continue
			}
			childPath := childOf(path, key)
			o, oldHas := old.Field(key)
			f, freshHas := fresh.Field(key)
			switch {
			case !oldHas:
				*changes = append(*changes, Change{Path: childPath, Kind: KindSchema, New: render(f)})
			case !freshHas:
				*changes = append(*changes, Change{Path: childPath, Kind: KindSchema, Old: render(o)})
			default:
				d.compare(childPath, o, f, changes)
			}
		}

	case jsonval.KindArray:
		oldItems, freshItems := old.Items(), fresh.Items()
		for i := 0; i < len(oldItems) || i < len(freshItems); i++ {
			childPath := fmt.Sprintf("%s/%d", path, i)
			switch {
			case i >= len(oldItems):
				*changes = append(*changes, Change{Path: childPath, Kind: KindSchema, New: render(freshItems[i])})
			case i >= len(freshItems):
				*changes = append(*changes, Change{Path: childPath, Kind: KindSchema, Old: render(oldItems[i])})
			default:
				d.compare(childPath, oldItems[i], freshItems[i], changes)
			}
		}

	case jsonval.KindNumber:
		oldD, oldErr := decimal.NewFromString(old.NumberLiteral())
		freshD, freshErr := decimal.NewFromString(fresh.NumberLiteral())
		if oldErr != nil || freshErr != nil {
			if old.NumberLiteral() != fresh.NumberLiteral() {
				*changes = append(*changes, Change{Path: path, Kind: KindMetadata, Old: render(old), New: render(fresh)})
			}
			return
		}
		switch {
		case !oldD.Equal(freshD):
			*changes = append(*changes, Change{Path: path, Kind: KindPricing, Old: render(old), New: render(fresh)})
		case old.NumberLiteral() != fresh.NumberLiteral():
			// same value, different literal; a formatting change only
			*changes = append(*changes, Change{Path: path, Kind: KindMetadata, Old: render(old), New: render(fresh)})
		}

	case jsonval.KindString:
		if old.Str() != fresh.Str() {
			*changes = append(*changes, Change{Path: path, Kind: KindMetadata, Old: render(old), New: render(fresh)})
		}

	case jsonval.KindBool:
		if old.BoolVal() != fresh.BoolVal() {
			*changes = append(*changes, Change{Path: path, Kind: KindMetadata, Old: render(old), New: render(fresh)})
		}
	}
}

// classify folds a change set into its bump severity. Patch is the
// floor: a processed service always bumps at least patch.
func classify(changes []Change) Bump {
	bump := BumpPatch
	for _, c := range changes {
		switch c.Kind {
		case KindSchema:
			return BumpMajor
		case KindPricing:
			bump = BumpMinor
		}
	}
	return bump
}

func render(v *jsonval.Value) string {
	return string(v.Marshal())
}

func childOf(path, key string) string {
	if path == "" {
		return key
	}
	return path + "/" + key
}

func unionKeys(a, b *jsonval.Value) []string {
	seen := make(map[string]bool)
	keys := make([]string, 0, a.Len()+b.Len())
	for _, k := range a.Keys() {
		seen[k] = true
		keys = append(keys, k)
	}
	for _, k := range b.Keys() {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
