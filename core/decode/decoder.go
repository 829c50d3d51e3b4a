// Package decode streams SKU attributes and on-demand pricing out of
// vendor offer documents. Documents run to gigabytes; nothing is
// materialized beyond the SKUs retained by the region predicate.
package decode

import (
	"fmt"
	"io"
	"os"
	"sort"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/santoshpalla27/aws-frontend-estimation/core/determinism"
	"github.com/santoshpalla27/aws-frontend-estimation/core/pricing"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/logging"
)

// PriceDimension is one on-demand price range for a SKU
type PriceDimension struct {
	RateCode     string            `json:"rateCode"`
	Description  string            `json:"description"`
	BeginRange   string            `json:"beginRange"`
	EndRange     string            `json:"endRange"`
	Unit         string            `json:"unit"`
	PricePerUnit map[string]string `json:"pricePerUnit"`
}

// RetainedSKU is one product that survived the region predicate,
// joined with its on-demand dimensions in pass two
type RetainedSKU struct {
	SKU           string
	ProductFamily string
	Attributes    map[string]string
	Dimensions    []PriceDimension
}

// Counters records what the passes observed. They feed the zero-retain
// diagnostic and the run log.
type Counters struct {
	ProductsSeen      int
	RegionMatches     int
	MissingAttributes int
	MissingTerms      int
	DimensionsDecoded int
}

// Result is the decoded view of one service document
type Result struct {
	Service         string
	Region          string
	DocVersion      string
	PublicationDate string
	Entries         []RetainedSKU
	Counters        Counters
}

// Decoder extracts retained SKUs from offer documents
type Decoder struct {
	log *zap.Logger
}

// NewDecoder creates a decoder
func NewDecoder() *Decoder {
	return &Decoder{log: logging.Component("decode")}
}

type product struct {
	SKU           string            `json:"sku"`
	ProductFamily string            `json:"productFamily"`
	Attributes    map[string]string `json:"attributes"`
}

type term struct {
	EffectiveDate   string                    `json:"effectiveDate"`
	PriceDimensions map[string]PriceDimension `json:"priceDimensions"`
}

// DecodeFile runs both passes over the document at path and returns the
// retained SKUs for the target region, sorted by SKU.
func (d *Decoder) DecodeFile(path, service, region string) (*Result, error) {
	result := &Result{Service: service, Region: region}

	first, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeParsing, err, "cannot open raw document for %s", service).
			WithContext("service", service).
			WithContext("path", path)
	}
	retained, err := d.passProducts(first, result)
	first.Close()
	if err != nil {
		return nil, err
	}

	if len(retained) == 0 {
		return nil, d.zeroRetainedError(service, region, result.Counters)
	}

	second, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeParsing, err, "cannot reopen raw document for %s", service).
			WithContext("service", service).
			WithContext("path", path)
	}
	err = d.passTerms(second, service, retained, &result.Counters)
	second.Close()
	if err != nil {
		return nil, err
	}

	skus := make([]string, 0, len(retained))
	for sku, entry := range retained {
		if len(entry.Dimensions) == 0 {
			result.Counters.MissingTerms++
		}
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	result.Entries = make([]RetainedSKU, 0, len(skus))
	for _, sku := range skus {
		result.Entries = append(result.Entries, *retained[sku])
	}

	d.log.Info("decoded offer document",
		zap.String("service", service),
		zap.String("region", region),
		zap.Int("products_seen", result.Counters.ProductsSeen),
		zap.Int("retained", len(result.Entries)),
		zap.Int("dimensions", result.Counters.DimensionsDecoded),
		zap.Int("missing_terms", result.Counters.MissingTerms))

	return result, nil
}

// passProducts walks the document, harvesting top-level metadata and
// the products map. Products outside the target region are decoded one
// at a time and dropped.
func (d *Decoder) passProducts(r io.Reader, result *Result) (map[string]*RetainedSKU, error) {
	service, region := result.Service, result.Region
	location, _ := pricing.LocationFor(region)

	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{', service, "document root"); err != nil {
		return nil, err
	}

	retained := make(map[string]*RetainedSKU)

	for dec.More() {
		key, err := objectKey(dec, service)
		if err != nil {
			return nil, err
		}

		switch key {
		case "version":
			if err := decodeString(dec, &result.DocVersion, service, "version"); err != nil {
				return nil, err
			}
		case "publicationDate":
			if err := decodeString(dec, &result.PublicationDate, service, "publicationDate"); err != nil {
				return nil, err
			}
		case "products":
			if err := expectDelim(dec, '{', service, "products"); err != nil {
				return nil, err
			}
			for dec.More() {
				sku, err := objectKey(dec, service)
				if err != nil {
					return nil, err
				}

				var p product
				if err := dec.Decode(&p); err != nil {
					return nil, parseError(service, err, "products/"+sku)
				}
				result.Counters.ProductsSeen++

				if len(p.Attributes) == 0 {
					result.Counters.MissingAttributes++
					continue
				}
				if !matchesRegion(p.Attributes, region, location) {
					continue
				}

				result.Counters.RegionMatches++
				retained[sku] = &RetainedSKU{
					SKU:           sku,
					ProductFamily: p.ProductFamily,
					Attributes:    p.Attributes,
				}
			}
			if err := expectDelim(dec, '}', service, "products"); err != nil {
				return nil, err
			}
		default:
			if err := skipValue(dec); err != nil {
				return nil, parseError(service, err, key)
			}
		}
	}

	if err := expectDelim(dec, '}', service, "document root"); err != nil {
		return nil, err
	}
	return retained, nil
}

// passTerms walks terms.OnDemand and joins price dimensions onto the
// retained set. Terms for unretained SKUs are token-skipped.
func (d *Decoder) passTerms(r io.Reader, service string, retained map[string]*RetainedSKU, counters *Counters) error {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{', service, "document root"); err != nil {
		return err
	}

	for dec.More() {
		key, err := objectKey(dec, service)
		if err != nil {
			return err
		}
		if key != "terms" {
			if err := skipValue(dec); err != nil {
				return parseError(service, err, key)
			}
			continue
		}

		if err := expectDelim(dec, '{', service, "terms"); err != nil {
			return err
		}
		for dec.More() {
			termType, err := objectKey(dec, service)
			if err != nil {
				return err
			}
			if termType != "OnDemand" {
				if err := skipValue(dec); err != nil {
					return parseError(service, err, "terms/"+termType)
				}
				continue
			}

			if err := expectDelim(dec, '{', service, "terms/OnDemand"); err != nil {
				return err
			}
			for dec.More() {
				sku, err := objectKey(dec, service)
				if err != nil {
					return err
				}

				entry, wanted := retained[sku]
				if !wanted {
					if err := skipValue(dec); err != nil {
						return parseError(service, err, "terms/OnDemand/"+sku)
					}
					continue
				}

				var terms map[string]term
				if err := dec.Decode(&terms); err != nil {
					return parseError(service, err, "terms/OnDemand/"+sku)
				}

				for _, termCode := range determinism.SortedKeys(terms) {
					t := terms[termCode]
					for _, rateCode := range determinism.SortedKeys(t.PriceDimensions) {
						entry.Dimensions = append(entry.Dimensions, t.PriceDimensions[rateCode])
						counters.DimensionsDecoded++
					}
				}
			}
			if err := expectDelim(dec, '}', service, "terms/OnDemand"); err != nil {
				return err
			}
		}
		if err := expectDelim(dec, '}', service, "terms"); err != nil {
			return err
		}
	}

	return expectDelim(dec, '}', service, "document root")
}

func matchesRegion(attrs map[string]string, region, location string) bool {
	if code, ok := attrs["regionCode"]; ok {
		return code == region
	}
	if loc, ok := attrs["location"]; ok {
		return location != "" && loc == location
	}
	return false
}

func (d *Decoder) zeroRetainedError(service, region string, c Counters) error {
	if c.ProductsSeen == 0 {
		return errors.Newf(errors.TypeParsing,
			"no products found in %s document; the document shape may have changed", service).
			WithContext("service", service)
	}
	return errors.Newf(errors.TypeUnmappableRegion,
		"no %s products matched region %s; wrong region, overly strict predicate, or changed document shape", service, region).
		WithContext("service", service).
		WithContext("region", region).
		WithContext("products_seen", c.ProductsSeen).
		WithContext("missing_attributes", c.MissingAttributes)
}

// expectDelim consumes one token and requires it to be the delimiter
func expectDelim(dec *json.Decoder, want rune, service, where string) error {
	tok, err := dec.Token()
	if err != nil {
		return parseError(service, err, where)
	}
	delim, ok := tok.(json.Delim)
	if !ok || rune(delim) != want {
		return errors.Newf(errors.TypeParsing, "expected %q at %s, got %v", want, where, tok).
			WithContext("service", service)
	}
	return nil
}

// objectKey consumes the next token as an object key
func objectKey(dec *json.Decoder, service string) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", parseError(service, err, "object key")
	}
	key, ok := tok.(string)
	if !ok {
		return "", errors.Newf(errors.TypeParsing, "expected object key, got %v", tok).
			WithContext("service", service)
	}
	return key, nil
}

// decodeString decodes the next value as a string
func decodeString(dec *json.Decoder, into *string, service, where string) error {
	if err := dec.Decode(into); err != nil {
		return parseError(service, err, where)
	}
	return nil
}

// skipValue consumes exactly one JSON value by counting delimiters
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	if delim != '{' && delim != '[' {
		return fmt.Errorf("unexpected close delimiter %v", delim)
	}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func parseError(service string, cause error, where string) error {
	return errors.Wrapf(errors.TypeParsing, cause, "malformed document at %s", where).
		WithContext("service", service).
		WithContext("path", where)
}
