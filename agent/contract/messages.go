package contract

import "strings"

// Fixed user-facing replies. They never carry internal error detail.
const (
	MsgClarifyRegion      = "Which region should I use for pricing (for example us-east-1, eastus, or us-central1)?"
	MsgUnparseable        = "I could not interpret that request. Please rephrase it."
	MsgNeedProviderRegion = "Please tell me which cloud provider and region you are interested in."
	MsgToolFailure        = "I could not fetch pricing data for that request. Try adding the provider and region, or rephrase your question."
	MsgTimeout            = "The assistant did not respond in time. Please try again."
)

// MsgToolNotAllowed is the refusal returned when a plan names a tool outside AllowedTools.
var MsgToolNotAllowed = "I can only use these tools: " + strings.Join(AllowedTools, ", ") + "."
