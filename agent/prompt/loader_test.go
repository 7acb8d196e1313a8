package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if set.CallSummary == "" {
		t.Fatal("call summary prompt is empty")
	}
	if set.CallSummary != strings.TrimSpace(set.CallSummary) {
		t.Fatal("call summary prompt is not trimmed")
	}
	// FString templates treat single braces as placeholders.
	if strings.ContainsAny(set.CallSummary, "{}") {
		t.Fatal("call summary prompt must not contain braces")
	}
	if !strings.Contains(set.CallSummary, "follow_up_needed") {
		t.Fatal("call summary prompt does not describe follow_up_needed")
	}
}
