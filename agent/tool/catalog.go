package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

// Executor runs one abstract tool call for an already resolved provider.
type Executor func(ctx context.Context, provider string, call contractx.ToolCall) (any, error)

var _ contractx.ToolGateway = Executor(nil)

func (e Executor) Execute(ctx context.Context, provider string, call contractx.ToolCall) (any, error) {
	return e(ctx, provider, call)
}

func NewExecutor(router *Router) Executor {
	fallback := DefaultExecutor()
	return func(ctx context.Context, provider string, call contractx.ToolCall) (any, error) {
		switch strings.ToLower(strings.TrimSpace(call.Name)) {
		case contractx.ToolListProviders:
			return router.ListProviders(ctx)
		case contractx.ToolListFamilies:
			return router.ListFamilies(ctx, provider)
		case contractx.ToolSearchInstances:
			return router.SearchInstances(ctx, provider, call.Args)
		case contractx.ToolGetPricing:
			return router.GetPricing(ctx, provider, call.Args)
		case contractx.ToolCompareInstances:
			return router.CompareInstances(ctx, provider, call.Args)
		default:
			return fallback(ctx, provider, call)
		}
	}
}

func DefaultExecutor() Executor {
	return func(ctx context.Context, provider string, call contractx.ToolCall) (any, error) {
		return errorResult("tool=%s is unavailable", call.Name), nil
	}
}

type param struct {
	name     string
	typ      schema.DataType
	desc     string
	required bool
}

type abstractTool struct {
	name   string
	desc   string
	params []param
}

var abstractTools = []abstractTool{
	{
		name: contractx.ToolListProviders,
		desc: "List the cloud providers the pricing service knows about.",
	},
	{
		name: contractx.ToolListFamilies,
		desc: "List instance families for a provider.",
		params: []param{
			{name: "provider", typ: schema.String, desc: "aws, azure, gcp, rds, elasticache, opensearch or redshift", required: true},
		},
	},
	{
		name: contractx.ToolSearchInstances,
		desc: "Search instance types, optionally restricted to one family.",
		params: []param{
			{name: "provider", typ: schema.String, desc: "Cloud provider", required: true},
			{name: "region", typ: schema.String, desc: "Region code"},
			{name: "vcpus", typ: schema.Integer, desc: "Minimum vCPU count"},
			{name: "memoryGiB", typ: schema.Number, desc: "Minimum memory in GiB"},
			{name: "gpu", typ: schema.Boolean, desc: "Require a GPU"},
			{name: "family", typ: schema.String, desc: "Instance family, e.g. m5"},
			{name: "priceMax", typ: schema.Number, desc: "Maximum hourly price in USD"},
			{name: "purchaseOption", typ: schema.String, desc: "on-demand, reserved or spot"},
			{name: "os", typ: schema.String, desc: "linux or windows"},
		},
	},
	{
		name: contractx.ToolGetPricing,
		desc: "Hourly price and specs of one instance type in one region.",
		params: []param{
			{name: "provider", typ: schema.String, desc: "Cloud provider", required: true},
			{name: "instanceType", typ: schema.String, desc: "Instance type, e.g. m5.large", required: true},
			{name: "region", typ: schema.String, desc: "Region code", required: true},
			{name: "purchaseOption", typ: schema.String, desc: "on-demand, reserved or spot"},
			{name: "os", typ: schema.String, desc: "linux or windows"},
		},
	},
	{
		name: contractx.ToolCompareInstances,
		desc: "Compare hourly prices of several instance types in one region.",
		params: []param{
			{name: "provider", typ: schema.String, desc: "Cloud provider", required: true},
			{name: "list", typ: schema.Array, desc: "Instance types to compare", required: true},
			{name: "region", typ: schema.String, desc: "Region code", required: true},
			{name: "purchaseOption", typ: schema.String, desc: "on-demand, reserved or spot"},
			{name: "os", typ: schema.String, desc: "linux or windows"},
		},
	},
}

// Definitions returns the abstract tools as eino tool infos.
func Definitions() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(abstractTools))
	for _, t := range abstractTools {
		params := make(map[string]*schema.ParameterInfo, len(t.params))
		for _, p := range t.params {
			info := &schema.ParameterInfo{Type: p.typ, Desc: p.desc, Required: p.required}
			if p.typ == schema.Array {
				info.ElemInfo = &schema.ParameterInfo{Type: schema.String}
			}
			params[p.name] = info
		}
		infos = append(infos, &schema.ToolInfo{
			Name:        t.name,
			Desc:        t.desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos
}

// Signatures renders one prompt line per tool definition, in allow-list
// order: the name, the description and the JSON schema of its arguments.
func Signatures() ([]string, error) {
	infos := Definitions()
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		params, err := info.ParamsOneOf.ToOpenAPIV3()
		if err != nil {
			return nil, fmt.Errorf("%w: tool %s parameters: %v", contractx.ErrValidation, info.Name, err)
		}

		args := "{}"
		if params != nil {
			sort.Strings(params.Required)
			raw, err := json.Marshal(params)
			if err != nil {
				return nil, fmt.Errorf("%w: tool %s parameters: %v", contractx.ErrValidation, info.Name, err)
			}
			args = string(raw)
		}
		out = append(out, fmt.Sprintf("%s: %s Arguments: %s", info.Name, info.Desc, args))
	}
	return out, nil
}
