package normalize

import (
	"testing"

	"github.com/santoshpalla27/aws-frontend-estimation/core/decode"
	"github.com/santoshpalla27/aws-frontend-estimation/core/pricing"
	"github.com/santoshpalla27/aws-frontend-estimation/core/registry"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(DefaultProcessors(), "USD")
}

func mustDef(t *testing.T, code string) registry.ServiceDefinition {
	t.Helper()
	def, ok := registry.Default().Lookup(code)
	if !ok {
		t.Fatalf("no default definition for %s", code)
	}
	return def
}

func sku(id, family string, attrs map[string]string, dims ...decode.PriceDimension) decode.RetainedSKU {
	return decode.RetainedSKU{
		SKU:           id,
		ProductFamily: family,
		Attributes:    attrs,
		Dimensions:    dims,
	}
}

func dim(begin, end, unit, usd string) decode.PriceDimension {
	return decode.PriceDimension{
		RateCode:     "RATE.TEST." + begin,
		BeginRange:   begin,
		EndRange:     end,
		Unit:         unit,
		PricePerUnit: map[string]string{"USD": usd},
	}
}

func linuxComputeAttrs(instanceType string) map[string]string {
	return map[string]string{
		"instanceType":    instanceType,
		"operatingSystem": "Linux",
		"tenancy":         "Shared",
		"preInstalledSw":  "NA",
		"capacitystatus":  "Used",
		"licenseModel":    "No License required",
	}
}

func TestEveryDefaultServiceHasABoundProcessor(t *testing.T) {
	engine := testEngine(t)
	for _, def := range registry.Default().All() {
		if _, ok := engine.Resolve(def.Processor); !ok {
			t.Errorf("service %s names processor %q but none is bound", def.Code, def.Processor)
		}
	}
}

func TestEC2FilterAcceptsOnlyTheLinuxSharedAllowList(t *testing.T) {
	proc := EC2Processor{}

	accepted := sku("SKU1", "Compute Instance", linuxComputeAttrs("t3.micro"))
	key, ok := proc.ComponentKey(accepted)
	if !ok || key != "t3.micro" {
		t.Fatalf("expected t3.micro to be retained, got key=%q ok=%v", key, ok)
	}

	rejects := []struct {
		name string
		edit func(map[string]string)
	}{
		{"windows", func(a map[string]string) { a["operatingSystem"] = "Windows" }},
		{"dedicated tenancy", func(a map[string]string) { a["tenancy"] = "Dedicated" }},
		{"preinstalled software", func(a map[string]string) { a["preInstalledSw"] = "SQL Std" }},
		{"reserved capacity", func(a map[string]string) { a["capacitystatus"] = "AllocatedCapacityReservation" }},
		{"byol", func(a map[string]string) { a["licenseModel"] = "Bring your own license" }},
		{"missing operating system", func(a map[string]string) { delete(a, "operatingSystem") }},
		{"missing instance type", func(a map[string]string) { delete(a, "instanceType") }},
	}
	for _, tc := range rejects {
		attrs := linuxComputeAttrs("t3.micro")
		tc.edit(attrs)
		if key, ok := proc.ComponentKey(sku("SKUX", "Compute Instance", attrs)); ok {
			t.Errorf("%s: expected rejection, got component %q", tc.name, key)
		}
	}
	t.Logf("all %d off-list variants rejected", len(rejects))
}

func TestComponentKeysAcrossProcessors(t *testing.T) {
	cases := []struct {
		name   string
		proc   Processor
		sku    decode.RetainedSKU
		want   string
		wantOK bool
	}{
		{
			name:   "ec2 ebs volume",
			proc:   EC2Processor{},
			sku:    sku("S", "Storage", map[string]string{"volumeApiName": "gp3"}),
			want:   "ebs_gp3",
			wantOK: true,
		},
		{
			name:   "s3 standard storage",
			proc:   S3Processor{},
			sku:    sku("S", "Storage", map[string]string{"volumeType": "Standard"}),
			want:   "storage_standard",
			wantOK: true,
		},
		{
			name:   "s3 glacier rejected",
			proc:   S3Processor{},
			sku:    sku("S", "Storage", map[string]string{"volumeType": "Amazon Glacier"}),
			wantOK: false,
		},
		{
			name:   "s3 tier1 requests",
			proc:   S3Processor{},
			sku:    sku("S", "API Request", map[string]string{"group": "S3-API-Tier1"}),
			want:   "requests_tier1",
			wantOK: true,
		},
		{
			name:   "s3 outbound transfer",
			proc:   S3Processor{},
			sku:    sku("S", "Data Transfer", map[string]string{"transferType": "AWS Outbound", "toLocationType": "Internet"}),
			want:   "transfer_out",
			wantOK: true,
		},
		{
			name:   "s3 inter-region transfer rejected",
			proc:   S3Processor{},
			sku:    sku("S", "Data Transfer", map[string]string{"transferType": "InterRegion Outbound", "toLocationType": "AWS Region"}),
			wantOK: false,
		},
		{
			name:   "lambda requests",
			proc:   LambdaProcessor{},
			sku:    sku("S", "Serverless", map[string]string{"group": "AWS-Lambda-Requests"}),
			want:   "requests",
			wantOK: true,
		},
		{
			name:   "lambda duration",
			proc:   LambdaProcessor{},
			sku:    sku("S", "Serverless", map[string]string{"group": "AWS-Lambda-Duration"}),
			want:   "duration",
			wantOK: true,
		},
		{
			name:   "lambda edge rejected",
			proc:   LambdaProcessor{},
			sku:    sku("S", "Serverless", map[string]string{"group": "AWS-Lambda-Edge-Requests"}),
			wantOK: false,
		},
		{
			name:   "dynamodb read units",
			proc:   DynamoDBProcessor{},
			sku:    sku("S", "Amazon DynamoDB PayPerRequest Throughput", map[string]string{"group": "DDB-ReadUnits"}),
			want:   "read_request_units",
			wantOK: true,
		},
		{
			name:   "dynamodb write units",
			proc:   DynamoDBProcessor{},
			sku:    sku("S", "Amazon DynamoDB PayPerRequest Throughput", map[string]string{"group": "DDB-WriteUnits"}),
			want:   "write_request_units",
			wantOK: true,
		},
		{
			name:   "dynamodb storage",
			proc:   DynamoDBProcessor{},
			sku:    sku("S", "Database Storage", map[string]string{"volumeType": "Amazon DynamoDB - Indexed DataStore"}),
			want:   "storage",
			wantOK: true,
		},
		{
			name:   "dynamodb provisioned rejected",
			proc:   DynamoDBProcessor{},
			sku:    sku("S", "Provisioned IOPS", map[string]string{"group": "DDB-ReadUnits"}),
			wantOK: false,
		},
		{
			name:   "vpc nat hours",
			proc:   VPCProcessor{},
			sku:    sku("S", "NAT Gateway", map[string]string{"usagetype": "USW2-NatGateway-Hours"}),
			want:   "nat_gateway_hour",
			wantOK: true,
		},
		{
			name:   "vpc nat bytes",
			proc:   VPCProcessor{},
			sku:    sku("S", "NAT Gateway", map[string]string{"usagetype": "USW2-NatGateway-Bytes"}),
			want:   "nat_gateway_gb",
			wantOK: true,
		},
		{
			name:   "apigateway rest",
			proc:   APIGatewayProcessor{},
			sku:    sku("S", "API Calls", map[string]string{"usagetype": "USW2-ApiGatewayRequest"}),
			want:   "rest_requests",
			wantOK: true,
		},
		{
			name:   "apigateway http",
			proc:   APIGatewayProcessor{},
			sku:    sku("S", "API Calls", map[string]string{"usagetype": "USW2-ApiGatewayHttpRequest"}),
			want:   "http_requests",
			wantOK: true,
		},
		{
			name:   "stepfunctions transitions",
			proc:   StepFunctionsProcessor{},
			sku:    sku("S", "AWS Step Functions", map[string]string{"usagetype": "USW2-StateTransition"}),
			want:   "state_transitions",
			wantOK: true,
		},
		{
			name:   "stepfunctions express rejected",
			proc:   StepFunctionsProcessor{},
			sku:    sku("S", "AWS Step Functions", map[string]string{"usagetype": "USW2-ExpressWorkflow-GB-Seconds"}),
			wantOK: false,
		},
	}

	for _, tc := range cases {
		key, ok := tc.proc.ComponentKey(tc.sku)
		if ok != tc.wantOK {
			t.Errorf("%s: retained=%v, expected %v", tc.name, ok, tc.wantOK)
			continue
		}
		if ok && key != tc.want {
			t.Errorf("%s: component %q, expected %q", tc.name, key, tc.want)
		}
	}
}

func TestNormalizeBuildsSimpleAndTieredComponents(t *testing.T) {
	engine := testEngine(t)
	doc := &decode.Result{
		Service:         "s3",
		Region:          "us-west-2",
		PublicationDate: "2024-04-19T22:27:53Z",
		Entries: []decode.RetainedSKU{
			sku("STORAGE1", "Storage", map[string]string{"volumeType": "Standard"},
				dim("0", "51200", "GB-Mo", "0.023"),
				dim("51200", "512000", "GB-Mo", "0.022"),
				dim("512000", "Inf", "GB-Mo", "0.021"),
			),
			sku("REQ1", "API Request", map[string]string{"group": "S3-API-Tier1"},
				dim("0", "Inf", "Requests", "0.000005"),
			),
		},
	}

	sp, stats, err := engine.Normalize(mustDef(t, "s3"), doc)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if sp.Service != "s3" || sp.Region != "us-west-2" || sp.Currency != "USD" {
		t.Errorf("snapshot header = %s/%s/%s", sp.Service, sp.Region, sp.Currency)
	}
	if sp.LastUpdated != "2024-04-19T22:27:53Z" {
		t.Errorf("lastUpdated = %q, expected the vendor publication date", sp.LastUpdated)
	}
	if sp.Version != "" {
		t.Errorf("version = %q before the versioner stamped it", sp.Version)
	}
	if stats.Retained != 2 || stats.Rejected != 0 || stats.Components != 2 {
		t.Errorf("stats = %+v", stats)
	}

	storage, ok := sp.Components["storage_standard"]
	if !ok {
		t.Fatal("storage_standard component missing")
	}
	if !storage.IsTiered() {
		t.Fatal("storage_standard should be tiered")
	}
	tiers := storage.Tiers()
	if len(tiers) != 3 {
		t.Fatalf("storage_standard has %d tiers, expected 3", len(tiers))
	}
	if !tiers[2].UpTo.IsInfinite() {
		t.Error("final storage tier should be unbounded")
	}
	if got := tiers[0].Rate.String(); got != "0.023" {
		t.Errorf("first tier rate = %s, expected 0.023", got)
	}

	requests, ok := sp.Components["requests_tier1"]
	if !ok {
		t.Fatal("requests_tier1 component missing")
	}
	simple, ok := requests.SimpleRate()
	if !ok {
		t.Fatal("requests_tier1 should be a simple rate")
	}
	if simple.Unit != pricing.UnitRequest {
		t.Errorf("requests unit = %s, expected %s", simple.Unit, pricing.UnitRequest)
	}
}

func TestNormalizeCountsFilterRejectionsWithoutFailing(t *testing.T) {
	engine := testEngine(t)
	doc := &decode.Result{
		Service:         "ec2",
		Region:          "us-east-1",
		PublicationDate: "2024-04-19T22:27:53Z",
		Entries: []decode.RetainedSKU{
			sku("KEEP", "Compute Instance", linuxComputeAttrs("m5.large"),
				dim("0", "Inf", "Hrs", "0.096")),
			sku("DROP1", "Compute Instance", map[string]string{
				"instanceType": "m5.large", "operatingSystem": "Windows",
				"tenancy": "Shared", "preInstalledSw": "NA", "capacitystatus": "Used",
			}),
			sku("DROP2", "Dedicated Host", map[string]string{}),
		},
	}

	sp, stats, err := engine.Normalize(mustDef(t, "ec2"), doc)
	if err != nil {
		t.Fatalf("rejections must not fail the run: %v", err)
	}
	if stats.Retained != 1 || stats.Rejected != 2 {
		t.Errorf("stats = %+v, expected 1 retained and 2 rejected", stats)
	}
	if _, ok := sp.Components["m5.large"]; !ok {
		t.Error("retained instance type missing from components")
	}
}

func TestNormalizeFailsOnUnknownVendorUnit(t *testing.T) {
	engine := testEngine(t)
	doc := &decode.Result{
		Service: "ec2",
		Region:  "us-east-1",
		Entries: []decode.RetainedSKU{
			sku("KEEP", "Compute Instance", linuxComputeAttrs("m5.large"),
				dim("0", "Inf", "Fortnights", "0.096")),
		},
	}

	_, _, err := engine.Normalize(mustDef(t, "ec2"), doc)
	if !errors.IsType(err, errors.TypeUnmappableUnit) {
		t.Fatalf("expected UNMAPPABLE_UNIT, got %v", err)
	}
}

func TestNormalizeFailsWhenRequiredComponentMissing(t *testing.T) {
	engine := testEngine(t)
	doc := &decode.Result{
		Service: "lambda",
		Region:  "us-east-1",
		Entries: []decode.RetainedSKU{
			sku("REQ", "Serverless", map[string]string{"group": "AWS-Lambda-Requests"},
				dim("0", "Inf", "Requests", "0.0000002")),
		},
	}

	_, _, err := engine.Normalize(mustDef(t, "lambda"), doc)
	if !errors.IsType(err, errors.TypeSchema) {
		t.Fatalf("expected SCHEMA_VIOLATION for the missing duration component, got %v", err)
	}
	var domainErr *errors.Error
	if e, ok := err.(*errors.Error); ok {
		domainErr = e
	} else {
		t.Fatalf("expected a domain error, got %T", err)
	}
	if domainErr.Context["path"] != "components/duration" {
		t.Errorf("path = %v, expected components/duration", domainErr.Context["path"])
	}
}

func TestNormalizeFailsWhenNothingSurvivesTheFilter(t *testing.T) {
	engine := testEngine(t)
	doc := &decode.Result{
		Service: "ec2",
		Region:  "us-east-1",
		Entries: []decode.RetainedSKU{
			sku("DROP", "Dedicated Host", map[string]string{}),
		},
	}

	_, stats, err := engine.Normalize(mustDef(t, "ec2"), doc)
	if !errors.IsType(err, errors.TypeSchema) {
		t.Fatalf("expected SCHEMA_VIOLATION, got %v", err)
	}
	if stats.Rejected != 1 {
		t.Errorf("stats = %+v, the rejection should still be counted", stats)
	}
}

func TestNormalizeFailsOnMissingCurrency(t *testing.T) {
	engine := testEngine(t)
	d := dim("0", "Inf", "Hrs", "0.096")
	d.PricePerUnit = map[string]string{"CNY": "0.7"}
	doc := &decode.Result{
		Service: "ec2",
		Region:  "us-east-1",
		Entries: []decode.RetainedSKU{
			sku("KEEP", "Compute Instance", linuxComputeAttrs("m5.large"), d),
		},
	}

	_, _, err := engine.Normalize(mustDef(t, "ec2"), doc)
	if !errors.IsType(err, errors.TypeNumericAnomaly) {
		t.Fatalf("expected NUMERIC_ANOMALY for the absent USD price, got %v", err)
	}
}

func TestNormalizeFailsOnNegativeRate(t *testing.T) {
	engine := testEngine(t)
	doc := &decode.Result{
		Service: "ec2",
		Region:  "us-east-1",
		Entries: []decode.RetainedSKU{
			sku("KEEP", "Compute Instance", linuxComputeAttrs("m5.large"),
				dim("0", "Inf", "Hrs", "-0.096")),
		},
	}

	_, _, err := engine.Normalize(mustDef(t, "ec2"), doc)
	if !errors.IsType(err, errors.TypeNumericAnomaly) {
		t.Fatalf("expected NUMERIC_ANOMALY for a negative rate, got %v", err)
	}
}

func TestNormalizeFailsOnUnparsableRate(t *testing.T) {
	engine := testEngine(t)
	doc := &decode.Result{
		Service: "ec2",
		Region:  "us-east-1",
		Entries: []decode.RetainedSKU{
			sku("KEEP", "Compute Instance", linuxComputeAttrs("m5.large"),
				dim("0", "Inf", "Hrs", "not-a-number")),
		},
	}

	_, _, err := engine.Normalize(mustDef(t, "ec2"), doc)
	if !errors.IsType(err, errors.TypeNumericAnomaly) {
		t.Fatalf("expected NUMERIC_ANOMALY for an unparsable rate, got %v", err)
	}
}

func TestNormalizeKeepsZeroRateTiers(t *testing.T) {
	engine := testEngine(t)
	doc := &decode.Result{
		Service:         "dynamodb",
		Region:          "us-east-1",
		PublicationDate: "2024-04-19T22:27:53Z",
		Entries: []decode.RetainedSKU{
			sku("STOR", "Database Storage",
				map[string]string{"volumeType": "Amazon DynamoDB - Indexed DataStore"},
				dim("0", "25", "GB-Mo", "0"),
				dim("25", "Inf", "GB-Mo", "0.25"),
			),
		},
	}

	sp, _, err := engine.Normalize(mustDef(t, "dynamodb"), doc)
	if err != nil {
		t.Fatalf("free leading tiers must be preserved: %v", err)
	}
	tiers := sp.Components["storage"].Tiers()
	if len(tiers) != 2 {
		t.Fatalf("storage has %d tiers, expected 2", len(tiers))
	}
	if !tiers[0].Rate.IsZero() {
		t.Errorf("first tier rate = %s, expected the free tier to stay zero", tiers[0].Rate)
	}
}

func TestNormalizeFailsForUnboundProcessor(t *testing.T) {
	engine := NewEngine(map[string]Processor{}, "USD")
	doc := &decode.Result{Service: "ec2", Region: "us-east-1"}

	_, _, err := engine.Normalize(mustDef(t, "ec2"), doc)
	if !errors.IsType(err, errors.TypeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
}
