package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/call_summary.txt
var callSummaryRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	CallSummary string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		CallSummary: strings.TrimSpace(callSummaryRaw),
	}
}
