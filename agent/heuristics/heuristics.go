// Package heuristics holds the pre-flight text checks run before any model
// call. They are plain keyword and pattern matches with no model in the loop.
package heuristics

import (
	"regexp"
	"strings"
)

var pricingKeywords = []string{
	"price",
	"cost",
	"pricing",
	"hourly",
	"per hour",
	"compare",
	"cheapest",
	"rate",
}

var (
	awsRegionPattern = regexp.MustCompile(`(?i)\b[a-z]{2}(-gov)?-(north|south|east|west|central|northeast|southeast|northwest|southwest)-\d\b`)
	gcpRegionPattern = regexp.MustCompile(`(?i)\b[a-z]+-[a-z]+\d+\b`)
	wordPattern      = regexp.MustCompile(`[a-z0-9]+`)
)

var azureRegions = []string{
	"eastus", "eastus2", "westus", "westus2", "westus3",
	"centralus", "northcentralus", "southcentralus", "westcentralus",
	"canadacentral", "canadaeast", "brazilsouth",
	"northeurope", "westeurope", "uksouth", "ukwest",
	"francecentral", "germanywestcentral", "switzerlandnorth", "norwayeast", "swedencentral",
	"eastasia", "southeastasia", "japaneast", "japanwest",
	"koreacentral", "centralindia", "southindia", "westindia",
	"australiaeast", "australiasoutheast", "australiacentral",
	"uaenorth", "southafricanorth",
}

var azureRegionSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(azureRegions))
	for _, r := range azureRegions {
		set[r] = struct{}{}
	}
	return set
}()

type regionMatcher func(text string) string

// matchers run in a fixed order: AWS, Azure, GCP. The GCP pattern is the
// loosest, so it goes last.
var matchers = []regionMatcher{
	matchAWSRegion,
	matchAzureRegion,
	matchGCPRegion,
}

func HasPricingIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range pricingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractRegion returns the first region token found in text, or "".
func ExtractRegion(text string) string {
	for _, match := range matchers {
		if region := match(text); region != "" {
			return region
		}
	}
	return ""
}

// NeedsRegion reports whether text asks about prices but names no region.
func NeedsRegion(text string) bool {
	return HasPricingIntent(text) && ExtractRegion(text) == ""
}

// ProviderFromText infers a provider token from keywords, defaulting to aws.
func ProviderFromText(text string) string {
	words := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		words[w] = struct{}{}
	}
	has := func(keys ...string) bool {
		for _, k := range keys {
			if _, ok := words[k]; ok {
				return true
			}
		}
		return false
	}

	switch {
	case has("aws", "ec2"):
		return "aws"
	case has("azure"):
		return "azure"
	case has("gcp", "google"):
		return "gcp"
	default:
		return "aws"
	}
}

func matchAWSRegion(text string) string {
	return strings.ToLower(awsRegionPattern.FindString(text))
}

func matchAzureRegion(text string) string {
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, ok := azureRegionSet[w]; ok {
			return w
		}
	}
	return ""
}

func matchGCPRegion(text string) string {
	return strings.ToLower(gcpRegionPattern.FindString(text))
}
