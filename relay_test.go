package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"
)

const testToken = "123:test-token"

// memStore is an in-process ContextStore for tests.
type memStore struct {
	mu      sync.Mutex
	windows map[string][]Message
	loadErr error
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{windows: map[string][]Message{}}
}

func (s *memStore) Load(_ context.Context, chatKey string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	window := s.windows[chatKey]
	out := make([]Message, len(window))
	copy(out, window)
	return out, nil
}

func (s *memStore) Save(_ context.Context, chatKey string, window []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	out := make([]Message, len(window))
	copy(out, window)
	s.windows[chatKey] = out
	s.saves++
	return nil
}

func (s *memStore) window(chatKey string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows[chatKey]
}

// fakeCompletion stands in for the chat-completion endpoint.
type fakeCompletion struct {
	mu       sync.Mutex
	requests []string
	reply    string
	// noChoices makes every response carry an empty choices array
	noChoices bool
}

func (f *fakeCompletion) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, string(body))
		noChoices := f.noChoices
		reply := f.reply
		f.mu.Unlock()

		resp := j{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-test",
			"choices": []j{{
				"index":         0,
				"finish_reason": "stop",
				"message":       j{"role": RoleAssistant, "content": reply},
			}},
		}
		if noChoices {
			resp["choices"] = []j{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (f *fakeCompletion) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeCompletion) lastRequest() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return ""
	}
	return f.requests[len(f.requests)-1]
}

// newTestRelay wires a Relay against fake collaborators. store may be nil
// to leave the context feature disabled.
func newTestRelay(t *testing.T, cfg Config, store ContextStore) *Relay {
	t.Helper()

	if cfg.BotToken == "" {
		cfg.BotToken = testToken
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
		cfg.APIKey = "sk-test"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-test"
	}

	r, err := New(zap.NewNop(), nil, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r.store = store
	return r
}

func startFakeCompletion(t *testing.T, fake *fakeCompletion) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return srv
}
