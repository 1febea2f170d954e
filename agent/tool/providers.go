package tool

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultProvider = "aws"

//go:embed providers.yaml
var providersYAML []byte

type providerTables struct {
	Aliases            map[string]string `yaml:"aliases"`
	Families           map[string]string `yaml:"families"`
	InstancesForFamily map[string]string `yaml:"instances_for_family"`
	Indexes            map[string]string `yaml:"indexes"`
	RegionPricing      map[string]string `yaml:"region_pricing"`
}

var tables = mustLoadProviderTables(providersYAML)

func mustLoadProviderTables(raw []byte) providerTables {
	t, err := loadProviderTables(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func loadProviderTables(raw []byte) (providerTables, error) {
	var t providerTables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return providerTables{}, fmt.Errorf("decode provider tables: %w", err)
	}
	if len(t.RegionPricing) == 0 {
		return providerTables{}, fmt.Errorf("provider tables: region_pricing is empty")
	}
	return t, nil
}

// NormalizeProvider lower-cases provider and folds known aliases. Blank input
// selects DefaultProvider; unknown tokens pass through.
func NormalizeProvider(provider string) string {
	p := strings.ToLower(strings.TrimSpace(provider))
	if p == "" {
		return DefaultProvider
	}
	if canonical, ok := tables.Aliases[p]; ok {
		return canonical
	}
	return p
}

func lookupTool(table map[string]string, provider string) (string, bool) {
	name, ok := table[NormalizeProvider(provider)]
	return name, ok && strings.TrimSpace(name) != ""
}
