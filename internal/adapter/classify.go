package adapter

import (
	"strings"

	"github.com/argusproj/argus/internal/unified"
)

// Classifier maps one backend's native status vocabulary onto the unified
// vocabulary. Each backend gets its own classifier so new backends never
// touch shared mapping logic.
type Classifier func(native string) unified.Status

// classifyTokens is the permissive substring fallback shared by the
// per-backend classifiers. Backend vocabularies are free text outside our
// control, so matching is case-insensitive and deliberately loose.
func classifyTokens(native string) unified.Status {
	s := strings.ToLower(strings.TrimSpace(native))
	switch {
	case contains(s, "pause"):
		return unified.StatusPaused
	case contains(s, "error", "fail"):
		return unified.StatusError
	case contains(s, "done", "complete"):
		return unified.StatusDone
	case contains(s, "block", "wait", "pend"):
		return unified.StatusBlocked
	case contains(s, "run", "work", "exec"):
		return unified.StatusWorking
	default:
		return unified.StatusIdle
	}
}

func contains(s string, tokens ...string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// classifyClaude handles Claude session states before falling back to the
// shared token matcher.
func classifyClaude(native string) unified.Status {
	switch strings.ToLower(strings.TrimSpace(native)) {
	case "awaiting", "awaiting_input":
		return unified.StatusBlocked
	case "spawning":
		return unified.StatusWorking
	}
	return classifyTokens(native)
}

// classifyCodex maps Codex session lifecycle states first.
func classifyCodex(native string) unified.Status {
	switch strings.ToLower(strings.TrimSpace(native)) {
	case "archived":
		return unified.StatusDone
	case "active":
		return unified.StatusWorking
	case "interrupted":
		return unified.StatusPaused
	}
	return classifyTokens(native)
}

// classifyGemini maps Gemini worker phases first.
func classifyGemini(native string) unified.Status {
	switch strings.ToLower(strings.TrimSpace(native)) {
	case "ready":
		return unified.StatusIdle
	case "throttled", "quota_exceeded":
		return unified.StatusBlocked
	}
	return classifyTokens(native)
}

// classifyOpencode has no known exact states; it is the bare token matcher.
func classifyOpencode(native string) unified.Status {
	return classifyTokens(native)
}
