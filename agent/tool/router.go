package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

var providerToolPattern = regexp.MustCompile(`(?i)^get-([a-z0-9]+)-`)

// Router maps the abstract tool vocabulary onto provider-specific remote
// tools. Unsupported providers and missing arguments come back as an
// {"error": ...} value so the answering round can explain them; client
// failures are returned as errors.
type Router struct {
	caller contractx.ToolCaller
}

func NewRouter(caller contractx.ToolCaller) *Router {
	return &Router{caller: caller}
}

type CompareEntry struct {
	InstanceType string          `json:"instanceType"`
	Result       json.RawMessage `json:"result"`
}

type CompareResult struct {
	Region   string         `json:"region"`
	Provider string         `json:"provider"`
	Results  []CompareEntry `json:"results"`
}

func errorResult(format string, args ...any) map[string]any {
	return map[string]any{"error": fmt.Sprintf(format, args...)}
}

func (r *Router) ListProviders(ctx context.Context) (any, error) {
	tools, err := r.caller.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(tools))
	providers := make([]string, 0, 8)
	for _, t := range tools {
		m := providerToolPattern.FindStringSubmatch(strings.TrimSpace(t.Name))
		if len(m) < 2 {
			continue
		}
		provider := NormalizeProvider(m[1])
		if _, ok := seen[provider]; ok {
			continue
		}
		seen[provider] = struct{}{}
		providers = append(providers, provider)
	}
	sort.Strings(providers)

	return map[string]any{"providers": providers}, nil
}

func (r *Router) ListFamilies(ctx context.Context, provider string) (any, error) {
	name, ok := lookupTool(tables.Families, provider)
	if !ok {
		return errorResult("list_families is not supported for provider %q", NormalizeProvider(provider)), nil
	}
	return r.caller.CallTool(ctx, name, map[string]any{})
}

func (r *Router) SearchInstances(ctx context.Context, provider string, args map[string]any) (any, error) {
	if family := StringArg(args, "family"); family != "" {
		name, ok := lookupTool(tables.InstancesForFamily, provider)
		if !ok {
			return errorResult("search_instances by family is not supported for provider %q", NormalizeProvider(provider)), nil
		}
		return r.caller.CallTool(ctx, name, map[string]any{"family": family})
	}

	name, ok := lookupTool(tables.Indexes, provider)
	if !ok {
		return errorResult("search_instances is not supported for provider %q", NormalizeProvider(provider)), nil
	}
	return r.caller.CallTool(ctx, name, map[string]any{})
}

func (r *Router) GetPricing(ctx context.Context, provider string, args map[string]any) (any, error) {
	instanceType := StringArg(args, "instanceType")
	region := StringArg(args, "region")
	if instanceType == "" || region == "" {
		return errorResult("instanceType and region are required"), nil
	}

	name, ok := lookupTool(tables.RegionPricing, provider)
	if !ok {
		return errorResult("get_pricing is not supported for provider %q", NormalizeProvider(provider)), nil
	}
	return r.caller.CallTool(ctx, name, map[string]any{
		"instanceType": instanceType,
		"region":       region,
	})
}

// CompareInstances prices each instance type one after another, in the
// order given. The first failing call aborts the comparison.
func (r *Router) CompareInstances(ctx context.Context, provider string, args map[string]any) (any, error) {
	region := StringArg(args, "region")
	instanceTypes := stringListArg(args, "list")
	if region == "" || len(instanceTypes) == 0 {
		return errorResult("region and a non-empty list of instance types are required"), nil
	}

	canonical := NormalizeProvider(provider)
	name, ok := lookupTool(tables.RegionPricing, canonical)
	if !ok {
		return errorResult("compare_instances is not supported for provider %q", canonical), nil
	}

	out := CompareResult{
		Region:   region,
		Provider: canonical,
		Results:  make([]CompareEntry, 0, len(instanceTypes)),
	}
	for _, instanceType := range instanceTypes {
		result, err := r.caller.CallTool(ctx, name, map[string]any{
			"instanceType": instanceType,
			"region":       region,
		})
		if err != nil {
			return nil, err
		}
		out.Results = append(out.Results, CompareEntry{
			InstanceType: instanceType,
			Result:       result,
		})
	}
	return out, nil
}

// argValue looks key up exactly first, then ignoring case.
func argValue(args map[string]any, key string) (any, bool) {
	if v, ok := args[key]; ok {
		return v, true
	}
	for k, v := range args {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// StringArg returns the trimmed string value of key, matched ignoring case.
// Non-string values other than numbers read as empty.
func StringArg(args map[string]any, key string) string {
	v, ok := argValue(args, key)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	case float64, int, int64:
		return strings.TrimSpace(fmt.Sprint(s))
	default:
		return ""
	}
}

func stringListArg(args map[string]any, key string) []string {
	v, ok := argValue(args, key)
	if !ok || v == nil {
		return nil
	}

	var raw []string
	switch items := v.(type) {
	case []string:
		raw = items
	case []any:
		for _, item := range items {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(items, ",")
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
