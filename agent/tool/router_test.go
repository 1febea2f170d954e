package tool

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

type toolCallRecord struct {
	name string
	args map[string]any
}

type fakeCaller struct {
	tools   []contractx.ToolDefinition
	listErr error
	results map[string]json.RawMessage
	failOn  string
	calls   []toolCallRecord
}

func (f *fakeCaller) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	f.calls = append(f.calls, toolCallRecord{name: name, args: args})
	if f.failOn != "" {
		if it, _ := args["instanceType"].(string); it == f.failOn {
			return nil, errors.New("remote failure")
		}
	}
	if raw, ok := f.results[name]; ok {
		return raw, nil
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func (f *fakeCaller) ListTools(ctx context.Context) ([]contractx.ToolDefinition, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tools, nil
}

func errorOf(t *testing.T, v any) string {
	t.Helper()
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m["error"].(string)
	return s
}

func TestNormalizeProvider(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"EC2":        "aws",
		"aws":        "aws",
		" AWS ":      "aws",
		"Google":     "gcp",
		"gcp":        "gcp",
		"azure":      "azure",
		"":           "aws",
		"  ":         "aws",
		"OpenSearch": "opensearch",
		"oracle":     "oracle",
	}
	for in, want := range tests {
		if got := NormalizeProvider(in); got != want {
			t.Fatalf("NormalizeProvider(%q) = %q, want %q", in, got, want)
		}
		if again := NormalizeProvider(NormalizeProvider(in)); again != want {
			t.Fatalf("NormalizeProvider is not idempotent for %q: %q", in, again)
		}
	}
}

func TestListProviders(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{tools: []contractx.ToolDefinition{
		{Name: "get-ec2-region-pricing"},
		{Name: "get-AWS-indexes"},
		{Name: "get-google-region-pricing"},
		{Name: "get-azure-vm-families"},
		{Name: "get-rds-indexes"},
		{Name: "describe-something"},
		{Name: "get-azure-indexes"},
	}}

	out, err := NewRouter(caller).ListProviders(context.Background())
	if err != nil {
		t.Fatalf("ListProviders() error = %v", err)
	}
	got := out.(map[string]any)["providers"]
	want := []string{"aws", "azure", "gcp", "rds"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("providers = %#v, want %#v", got, want)
	}
}

func TestListProvidersPropagatesError(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{listErr: errors.New("down")}
	if _, err := NewRouter(caller).ListProviders(context.Background()); err == nil {
		t.Fatal("expected error but got nil")
	}
}

func TestListFamilies(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{}
	router := NewRouter(caller)

	if _, err := router.ListFamilies(context.Background(), "Google"); err != nil {
		t.Fatalf("ListFamilies() error = %v", err)
	}
	if len(caller.calls) != 1 || caller.calls[0].name != "get-google-machine-families" || len(caller.calls[0].args) != 0 {
		t.Fatalf("unexpected calls: %#v", caller.calls)
	}

	out, err := router.ListFamilies(context.Background(), "oracle")
	if err != nil {
		t.Fatalf("ListFamilies(unsupported) error = %v", err)
	}
	if errorOf(t, out) == "" {
		t.Fatalf("expected structured error, got %#v", out)
	}
	if len(caller.calls) != 1 {
		t.Fatalf("unsupported provider must not call the remote service")
	}
}

func TestSearchInstances(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{}
	router := NewRouter(caller)

	if _, err := router.SearchInstances(context.Background(), "aws", map[string]any{"family": "m5"}); err != nil {
		t.Fatalf("SearchInstances(family) error = %v", err)
	}
	if _, err := router.SearchInstances(context.Background(), "azure", map[string]any{"vcpus": 4}); err != nil {
		t.Fatalf("SearchInstances() error = %v", err)
	}

	want := []toolCallRecord{
		{name: "get-ec2-instances-for-family", args: map[string]any{"family": "m5"}},
		{name: "get-azure-indexes", args: map[string]any{}},
	}
	if !reflect.DeepEqual(caller.calls, want) {
		t.Fatalf("calls = %#v, want %#v", caller.calls, want)
	}

	out, err := router.SearchInstances(context.Background(), "redshift", map[string]any{"family": "ra3"})
	if err != nil || errorOf(t, out) == "" {
		t.Fatalf("expected structured error, got %#v, %v", out, err)
	}
}

func TestGetPricingRequiresArguments(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{}
	out, err := NewRouter(caller).GetPricing(context.Background(), "aws", map[string]any{"instanceType": "m5.large"})
	if err != nil {
		t.Fatalf("GetPricing() error = %v", err)
	}
	if got := errorOf(t, out); got != "instanceType and region are required" {
		t.Fatalf("error = %q", got)
	}
	if len(caller.calls) != 0 {
		t.Fatalf("expected no remote call, got %#v", caller.calls)
	}
}

func TestGetPricing(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{results: map[string]json.RawMessage{
		"get-azure-region-pricing": json.RawMessage(`{"hourly":0.096}`),
	}}
	out, err := NewRouter(caller).GetPricing(context.Background(), "AZURE", map[string]any{
		"instanceType":   "Standard_D2s_v5",
		"region":         "eastus",
		"purchaseOption": "on-demand",
	})
	if err != nil {
		t.Fatalf("GetPricing() error = %v", err)
	}
	if raw, ok := out.(json.RawMessage); !ok || string(raw) != `{"hourly":0.096}` {
		t.Fatalf("GetPricing() = %#v", out)
	}
	want := map[string]any{"instanceType": "Standard_D2s_v5", "region": "eastus"}
	if !reflect.DeepEqual(caller.calls[0].args, want) {
		t.Fatalf("args = %#v, want %#v", caller.calls[0].args, want)
	}
}

func TestCompareInstancesPreservesOrder(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{}
	out, err := NewRouter(caller).CompareInstances(context.Background(), "ec2", map[string]any{
		"list":   []any{"a", "b"},
		"region": "us-east-1",
	})
	if err != nil {
		t.Fatalf("CompareInstances() error = %v", err)
	}

	if len(caller.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(caller.calls))
	}
	for i, it := range []string{"a", "b"} {
		call := caller.calls[i]
		if call.name != "get-ec2-region-pricing" || call.args["instanceType"] != it || call.args["region"] != "us-east-1" {
			t.Fatalf("call[%d] = %#v", i, call)
		}
	}

	res, ok := out.(CompareResult)
	if !ok {
		t.Fatalf("unexpected result type %T", out)
	}
	if res.Region != "us-east-1" || res.Provider != "aws" {
		t.Fatalf("unexpected header: %#v", res)
	}
	if len(res.Results) != 2 || res.Results[0].InstanceType != "a" || res.Results[1].InstanceType != "b" {
		t.Fatalf("unexpected results: %#v", res.Results)
	}
}

func TestCompareInstancesAbortsOnFailure(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{failOn: "a"}
	_, err := NewRouter(caller).CompareInstances(context.Background(), "aws", map[string]any{
		"list":   []string{"a", "b"},
		"region": "us-east-1",
	})
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if len(caller.calls) != 1 {
		t.Fatalf("expected compare to stop after first failure, got %d calls", len(caller.calls))
	}
}

func TestCompareInstancesRequiresArguments(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{}
	router := NewRouter(caller)

	for _, args := range []map[string]any{
		{"list": []any{"a"}},
		{"region": "us-east-1"},
		{"region": "us-east-1", "list": []any{}},
	} {
		out, err := router.CompareInstances(context.Background(), "aws", args)
		if err != nil || errorOf(t, out) == "" {
			t.Fatalf("CompareInstances(%#v) = %#v, %v", args, out, err)
		}
	}
	if len(caller.calls) != 0 {
		t.Fatalf("expected no remote calls, got %#v", caller.calls)
	}
}

func TestProviderTablesLoad(t *testing.T) {
	t.Parallel()

	if _, err := loadProviderTables([]byte("families: [")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := loadProviderTables([]byte("families:\n  aws: x\n")); err == nil {
		t.Fatal("expected error when region_pricing is empty")
	}
	if got := tables.RegionPricing["redshift"]; got != "get-redshift-region-pricing" {
		t.Fatalf("redshift pricing tool = %q", got)
	}
}
