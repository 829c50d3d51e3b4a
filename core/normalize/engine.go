package normalize

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/santoshpalla27/aws-frontend-estimation/core/decode"
	"github.com/santoshpalla27/aws-frontend-estimation/core/determinism"
	"github.com/santoshpalla27/aws-frontend-estimation/core/pricing"
	"github.com/santoshpalla27/aws-frontend-estimation/core/registry"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/logging"
)

// Stats counts normalization outcomes for one service. Rejections are
// expected and only counted; every other anomaly fails the run.
type Stats struct {
	Retained   int
	Rejected   int
	Components int
}

// Engine applies per-service processors to decoded offer documents
type Engine struct {
	processors map[string]Processor
	currency   string
	log        *zap.Logger
}

// NewEngine creates an engine over the processor table. Currency is the
// ISO code prices are extracted under.
func NewEngine(processors map[string]Processor, currency string) *Engine {
	return &Engine{
		processors: processors,
		currency:   currency,
		log:        logging.Component("normalize"),
	}
}

// Resolve returns the processor bound to name. Callers that fetch
// services without a bound processor must surface that through the
// parity check, not through normalization.
func (e *Engine) Resolve(name string) (Processor, bool) {
	p, ok := e.processors[name]
	return p, ok
}

// Normalize transforms a decoded document into the canonical snapshot.
// Version is left empty; the versioner stamps it at write time.
func (e *Engine) Normalize(def registry.ServiceDefinition, doc *decode.Result) (*pricing.ServicePricing, Stats, error) {
	var stats Stats

	proc, ok := e.Resolve(def.Processor)
	if !ok {
		return nil, stats, errors.Newf(errors.TypeInternal,
			"no processor bound for %q", def.Processor).
			WithContext("service", doc.Service)
	}

	byComponent := make(map[string][]pricing.RawRange)
	for _, sku := range doc.Entries {
		key, ok := proc.ComponentKey(sku)
		if !ok {
			stats.Rejected++
			continue
		}
		stats.Retained++

		for _, dim := range sku.Dimensions {
			raw, err := e.rawRange(doc.Service, sku.SKU, key, dim)
			if err != nil {
				return nil, stats, err
			}
			byComponent[key] = append(byComponent[key], raw)
		}
	}

	components := make(map[string]pricing.Component, len(byComponent))
	for _, key := range determinism.SortedKeys(byComponent) {
		comp, err := pricing.ExpandTiers(doc.Service, key, byComponent[key])
		if err != nil {
			return nil, stats, err
		}
		components[key] = comp
	}

	for _, key := range proc.Required() {
		if _, ok := components[key]; !ok {
			return nil, stats, errors.SchemaViolation(doc.Service, "components/"+key,
				"required component missing")
		}
	}
	if len(components) == 0 {
		return nil, stats, errors.SchemaViolation(doc.Service, "components",
			"no components survived the filter")
	}
	stats.Components = len(components)

	e.log.Info("normalized service",
		zap.String("service", doc.Service),
		zap.String("region", doc.Region),
		zap.Int("retained", stats.Retained),
		zap.Int("rejected", stats.Rejected),
		zap.Int("components", stats.Components))

	return &pricing.ServicePricing{
		Service:     doc.Service,
		Region:      doc.Region,
		Currency:    e.currency,
		LastUpdated: doc.PublicationDate,
		Components:  components,
	}, stats, nil
}

// rawRange converts one vendor price dimension into a range ready for
// tier expansion, extracting the configured currency and mapping the
// vendor unit.
func (e *Engine) rawRange(service, sku, component string, dim decode.PriceDimension) (pricing.RawRange, error) {
	priceStr, ok := dim.PricePerUnit[e.currency]
	if !ok {
		return pricing.RawRange{}, errors.NumericAnomaly(service, component,
			fmt.Sprintf("rate code %s carries no %s price", dim.RateCode, e.currency))
	}

	rate, err := pricing.ParseRate(priceStr)
	if err != nil {
		return pricing.RawRange{}, errors.NumericAnomaly(service, component,
			fmt.Sprintf("rate code %s: %v", dim.RateCode, err))
	}
	if rate.IsNegative() {
		return pricing.RawRange{}, errors.NumericAnomaly(service, component,
			fmt.Sprintf("rate code %s is negative: %s", dim.RateCode, rate))
	}

	unit, err := pricing.MapUnit(service, sku, dim.Unit)
	if err != nil {
		return pricing.RawRange{}, err
	}

	return pricing.RawRange{
		BeginRange: dim.BeginRange,
		EndRange:   dim.EndRange,
		Rate:       rate,
		Unit:       unit,
	}, nil
}
