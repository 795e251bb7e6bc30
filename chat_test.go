package relay

import (
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
)

func TestTruncateWindowDropsOldestFirst(t *testing.T) {
	window := []Message{
		{Role: RoleUser, Content: "1"},
		{Role: RoleAssistant, Content: "2"},
		{Role: RoleUser, Content: "3"},
		{Role: RoleAssistant, Content: "4"},
	}

	got := truncateWindow(window, 2)
	if len(got) != 2 || got[0].Content != "3" || got[1].Content != "4" {
		t.Fatalf("unexpected window after truncation: %#v", got)
	}

	if got := truncateWindow(nil, 2); len(got) != 0 {
		t.Fatalf("truncating an empty window yielded %#v", got)
	}
}

func TestWindowInvariantHoldsAcrossTurns(t *testing.T) {
	for n := 1; n <= 4; n++ {
		cfg := Config{Window: n}
		var window []Message
		for turn := 0; turn < 20; turn++ {
			window = append(window, Message{Role: RoleUser, Content: "q"})
			window = truncateWindow(window, cfg.windowLimit())
			window = append(window, Message{Role: RoleAssistant, Content: "a"})
			window = truncateWindow(window, cfg.windowLimit())

			if len(window) > 2*n {
				t.Fatalf("N=%d turn=%d: window length %d exceeds %d", n, turn, len(window), 2*n)
			}
		}
	}
}

func TestInjectRepliedMessage(t *testing.T) {
	replied := &models.Message{
		Text: "earlier remark",
		From: &models.User{IsBot: false},
	}
	window := injectRepliedMessage(nil, replied)
	if len(window) != 1 || window[0].Role != RoleUser || window[0].Content != "earlier remark" {
		t.Fatalf("unexpected injection: %#v", window)
	}

	replied.From.IsBot = true
	window = injectRepliedMessage(nil, replied)
	if len(window) != 1 || window[0].Role != RoleAssistant {
		t.Fatalf("bot reply should inject as assistant: %#v", window)
	}

	if got := injectRepliedMessage(nil, nil); len(got) != 0 {
		t.Fatalf("nil reply injected something: %#v", got)
	}
}

func TestInjectRepliedMessageSkipsCommandEcho(t *testing.T) {
	replied := &models.Message{
		Text: commandEchoPrefix + " Context for the current chat (if it existed) has been cleared.",
		From: &models.User{IsBot: true},
	}
	if got := injectRepliedMessage(nil, replied); len(got) != 0 {
		t.Fatalf("command echo leaked into the window: %#v", got)
	}
}

func TestParseCommand(t *testing.T) {
	word, args, ok := parseCommand("/clear")
	if !ok || word != "clear" || len(args) != 0 {
		t.Fatalf("got %q %v %v", word, args, ok)
	}

	word, _, ok = parseCommand("/Start@SomeBot now")
	if !ok || word != "start" {
		t.Fatalf("got %q %v", word, ok)
	}

	if _, _, ok := parseCommand("hello"); ok {
		t.Fatal("plain text parsed as command")
	}
	if _, _, ok := parseCommand("/"); ok {
		t.Fatal("bare slash parsed as command")
	}
}

func TestContextDumpText(t *testing.T) {
	if got := contextDumpText(nil); got != commandEchoPrefix+" Context is empty or not available." {
		t.Fatalf("empty dump: %q", got)
	}

	got := contextDumpText([]Message{{Role: RoleUser, Content: "a_b"}})
	if !strings.HasPrefix(got, commandEchoPrefix+" ") {
		t.Fatalf("dump misses the echo marker: %q", got)
	}
	if !strings.Contains(got, `a\_b`) {
		t.Fatalf("dump was not sanitized: %q", got)
	}
}

func TestClampCallbackData(t *testing.T) {
	if got := clampCallbackData("short"); got != "short" {
		t.Fatalf("got %q", got)
	}

	long := strings.Repeat("x", 100)
	if got := clampCallbackData(long); len(got) != callbackDataLimit {
		t.Fatalf("clamped to %d bytes", len(got))
	}

	// never cut a rune in half
	multi := strings.Repeat("é", 40)
	got := clampCallbackData(multi)
	if len(got) > callbackDataLimit || !strings.HasPrefix(multi, got) {
		t.Fatalf("bad clamp: %q (%d bytes)", got, len(got))
	}
}
