package pricing

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestRateMarshalsAsUnquotedNumber(t *testing.T) {
	out, err := json.Marshal(MustRate("0.0104"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != "0.0104" {
		t.Errorf("Expected 0.0104, got %s", out)
	}
}

func TestRateUnmarshalAcceptsNumberAndString(t *testing.T) {
	var fromNumber, fromString Rate
	if err := json.Unmarshal([]byte(`0.085`), &fromNumber); err != nil {
		t.Fatalf("Unmarshal number failed: %v", err)
	}
	if err := json.Unmarshal([]byte(`"0.085"`), &fromString); err != nil {
		t.Fatalf("Unmarshal string failed: %v", err)
	}
	if !fromNumber.Equal(fromString) {
		t.Errorf("Expected equal rates, got %s and %s", fromNumber, fromString)
	}
}

func TestTierBoundMarshalsNumberOrInfinity(t *testing.T) {
	finite, err := json.Marshal(BoundAt(decimal.NewFromInt(10240)))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(finite) != "10240" {
		t.Errorf("Expected 10240, got %s", finite)
	}

	infinite, err := json.Marshal(Unbounded())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(infinite) != `"Infinity"` {
		t.Errorf(`Expected "Infinity", got %s`, infinite)
	}
}

func TestTierBoundRoundTrip(t *testing.T) {
	for _, raw := range []string{`10240`, `"Infinity"`, `0.5`} {
		var b TierBound
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			t.Fatalf("Unmarshal %s failed: %v", raw, err)
		}
		out, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(out) != raw {
			t.Errorf("Round trip changed %s to %s", raw, out)
		}
	}
}

func TestTierBoundRejectsOtherStrings(t *testing.T) {
	var b TierBound
	if err := json.Unmarshal([]byte(`"unlimited"`), &b); err == nil {
		t.Error("Expected error for non-Infinity string bound")
	}
}

func TestComponentMarshalsByShape(t *testing.T) {
	simple, err := json.Marshal(Simple(MustRate("0.0104"), UnitHour))
	if err != nil {
		t.Fatalf("Marshal simple failed: %v", err)
	}
	if string(simple) != `{"rate":0.0104,"unit":"hour"}` {
		t.Errorf("Unexpected simple form: %s", simple)
	}

	tiered, err := json.Marshal(Tiered([]Tier{
		{UpTo: BoundAt(decimal.NewFromInt(10240)), Rate: MustRate("0.09"), Unit: UnitGBMonth},
		{UpTo: Unbounded(), Rate: MustRate("0.07"), Unit: UnitGBMonth},
	}))
	if err != nil {
		t.Fatalf("Marshal tiered failed: %v", err)
	}
	want := `[{"upTo":10240,"rate":0.09,"unit":"gb_month"},{"upTo":"Infinity","rate":0.07,"unit":"gb_month"}]`
	if string(tiered) != want {
		t.Errorf("Unexpected tiered form:\n%s\nwant:\n%s", tiered, want)
	}
}

func TestServicePricingRoundTripIdentity(t *testing.T) {
	original := ServicePricing{
		Service:     "s3",
		Region:      "us-east-1",
		Currency:    "USD",
		Version:     "1.2.0",
		LastUpdated: "2026-03-01T00:00:00Z",
		Components: map[string]Component{
			"storage_standard": Tiered([]Tier{
				{UpTo: BoundAt(decimal.NewFromInt(51200)), Rate: MustRate("0.023"), Unit: UnitGBMonth},
				{UpTo: Unbounded(), Rate: MustRate("0.022"), Unit: UnitGBMonth},
			}),
			"requests_tier1": Simple(MustRate("0.005"), UnitRequest),
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded ServicePricing
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	again, err := json.Marshal(decoded)
	if err != nil {
		t.Fatalf("Re-marshal failed: %v", err)
	}
	if diff := cmp.Diff(string(data), string(again)); diff != "" {
		t.Errorf("Round trip not identity (-first +second):\n%s", diff)
	}
}

func TestCanonicalUnitClosedSet(t *testing.T) {
	if !UnitGBMonth.Valid() {
		t.Error("gb_month must be canonical")
	}
	if CanonicalUnit("GB-Mo").Valid() {
		t.Error("Vendor spellings must not validate as canonical")
	}
	if CanonicalUnit("").Valid() {
		t.Error("Empty unit must not validate")
	}
}
