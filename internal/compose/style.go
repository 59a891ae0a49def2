package compose

import "strings"

// Style selects how much elaboration the model is asked for. Detected
// from the phrasing of the user message, never user-configurable directly.
type Style int

const (
	// StyleBrief asks for the key point only. The default.
	StyleBrief Style = iota

	// StyleDetailed asks for step-by-step explanation with code if needed.
	StyleDetailed
)

// Detection tables. Detailed cues win over brief cues when both match.
var (
	detailedCues = []string{"explain", "how", "why", "code", "write", "generate", "example"}
	briefCues    = []string{"what is", "who is", "define", "shortcut", "syntax"}
)

// styleInstructions are appended to the system message per detected style.
var styleInstructions = map[Style]string{
	StyleBrief:    "Answer briefly and only with the solution or key point.",
	StyleDetailed: "Explain clearly with proper steps and code if needed.",
}

// DetectStyle classifies a user message by its phrasing cues.
func DetectStyle(message string) Style {
	lower := strings.ToLower(message)
	for _, cue := range detailedCues {
		if containsWord(lower, cue) {
			return StyleDetailed
		}
	}
	for _, cue := range briefCues {
		if containsWord(lower, cue) {
			return StyleBrief
		}
	}
	return StyleBrief
}

// Instruction returns the system-prompt suffix for the style.
func (s Style) Instruction() string {
	return styleInstructions[s]
}

// containsWord reports whether phrase occurs in text on word boundaries,
// so "how" does not fire inside "showing".
func containsWord(text, phrase string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		beforeOK := i == 0 || !isWordChar(text[i-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		start = i + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
