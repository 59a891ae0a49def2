// Package command routes builtin assistant commands that are answered
// locally, without touching the language model.
//
// Detection is a tagged enum plus an ordered table of trigger phrases
// matched on word boundaries. Earlier table entries win, so specific
// phrases ("open youtube") shadow looser ones, and "time" inside
// "timezone" does not fire.
package command

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Kind identifies a builtin command.
type Kind int

const (
	KindNone Kind = iota
	KindOpenYouTube
	KindOpenBrowser
	KindOpenGoogle
	KindOpenNotepad
	KindOpenCalculator
	KindTime
	KindDate
	KindSystemInfo
	KindGreeting
	KindFeatures
	KindCreator
	KindSmalltalk
)

var kindNames = map[Kind]string{
	KindNone:           "none",
	KindOpenYouTube:    "open_youtube",
	KindOpenBrowser:    "open_browser",
	KindOpenGoogle:     "open_google",
	KindOpenNotepad:    "open_notepad",
	KindOpenCalculator: "open_calculator",
	KindTime:           "time",
	KindDate:           "date",
	KindSystemInfo:     "system_info",
	KindGreeting:       "greeting",
	KindFeatures:       "features",
	KindCreator:        "creator",
	KindSmalltalk:      "smalltalk",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Reply type tags understood by clients.
const (
	TypeOpenURL = "open_url"
	TypeInfo    = "info"
)

// Reply is the local answer to a builtin command. URL is set only for
// TypeOpenURL replies; the client performs the navigation.
type Reply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// table maps trigger phrases to kinds, most specific first. Order
// matters: "open google" must be tried before the bare "google", and
// multi-word smalltalk phrases before the greeting words.
var table = []struct {
	kind    Kind
	phrases []string
}{
	{KindCreator, []string{"who made you", "who developed you", "your creator"}},
	{KindSmalltalk, []string{"how are you", "how's it going", "what's up"}},
	{KindOpenYouTube, []string{"open youtube", "youtube"}},
	{KindOpenBrowser, []string{"open chrome", "browser", "chrome"}},
	{KindOpenGoogle, []string{"open google", "google.com", "google"}},
	{KindOpenNotepad, []string{"open notepad", "notepad", "text editor"}},
	{KindOpenCalculator, []string{"open calculator", "calculator"}},
	{KindTime, []string{"what time", "current time", "time"}},
	{KindDate, []string{"what date", "today's date", "date", "today"}},
	{KindSystemInfo, []string{"system info", "system information"}},
	{KindGreeting, []string{"hello", "hi", "hey"}},
	{KindFeatures, []string{"what can you do", "features", "help"}},
}

// Detect matches input against the trigger table. Returns KindNone and
// false when nothing matches and the message should go to the model.
func Detect(input string) (Kind, bool) {
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "" {
		return KindNone, false
	}
	for _, entry := range table {
		for _, phrase := range entry.phrases {
			if containsPhrase(lower, phrase) {
				return entry.kind, true
			}
		}
	}
	return KindNone, false
}

// Respond produces the local reply for a detected command. now supplies
// the clock for time and date replies.
func (k Kind) Respond(now time.Time) Reply {
	switch k {
	case KindOpenYouTube:
		return Reply{Type: TypeOpenURL, Message: "Opening YouTube", URL: "https://www.youtube.com"}
	case KindOpenBrowser:
		return Reply{Type: TypeOpenURL, Message: "Opening Google", URL: "https://www.google.com"}
	case KindOpenGoogle:
		return Reply{Type: TypeOpenURL, Message: "Opening Google", URL: "https://www.google.com"}
	case KindOpenNotepad:
		return Reply{Type: TypeInfo, Message: "Notepad is a desktop application, so I can't open it from here."}
	case KindOpenCalculator:
		return Reply{Type: TypeInfo, Message: "Calculator is a desktop application, so I can't open it from here."}
	case KindTime:
		return Reply{Type: TypeInfo, Message: "The time is " + now.Format("3:04 PM")}
	case KindDate:
		return Reply{Type: TypeInfo, Message: "Today is " + now.Format("Monday, January 2, 2006")}
	case KindSystemInfo:
		return Reply{Type: TypeInfo, Message: systemInfo()}
	case KindGreeting:
		return Reply{Type: TypeInfo, Message: "Hello! How can I help you today?"}
	case KindFeatures:
		return Reply{Type: TypeInfo, Message: featuresMessage()}
	case KindCreator:
		return Reply{Type: TypeInfo, Message: "I was developed by Chirag Bhatt 🧠"}
	case KindSmalltalk:
		return Reply{Type: TypeInfo, Message: "I'm doing great, thanks for asking! 😊"}
	default:
		return Reply{Type: TypeInfo, Message: "I didn't recognize that command."}
	}
}

func featuresMessage() string {
	features := []string{
		"🌐 Open websites (YouTube, Google)",
		"🔍 Web search",
		"🧠 Deep search with semantic retrieval",
		"⏰ Get current time and date",
		"💻 System information",
	}
	return "Here's what I can do:\n\n" + strings.Join(features, "\n")
}

func systemInfo() string {
	return fmt.Sprintf("System: %s\nArchitecture: %s\nCPUs: %d\nGo Version: %s",
		runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.Version())
}

// containsPhrase reports whether phrase occurs in text with word
// boundaries on both sides.
func containsPhrase(text, phrase string) bool {
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
