// Package relay is a stateless webhook relay between Telegram and a
// chat-completion API: it classifies each inbound update, keeps a short
// rolling conversation window per chat in an external store, forwards the
// window upstream and answers through the webhook response body.
package relay

import (
	"fmt"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Relay dispatches inbound webhook updates. It is an http.Handler; one
// invocation handles exactly one update and holds no state between calls
// beyond what the ContextStore persists.
type Relay struct {
	logger       *zap.Logger
	store        ContextStore
	openaiClient *openai.Client
	bot          *bot.Bot
	config       Config

	tasks sync.WaitGroup
}

// New wires a Relay from its collaborators. A nil db disables the context
// feature regardless of the configured window size.
func New(logger *zap.Logger, db *gorm.DB, cfg Config) (*Relay, error) {
	r := &Relay{
		logger: logger.Named("Relay"),
		config: cfg,
	}

	client, err := newCompletionClient(cfg)
	if err != nil {
		return nil, err
	}
	r.openaiClient = client

	if err := r.setupBot(); err != nil {
		return nil, fmt.Errorf("setup bot: %w", err)
	}

	if db != nil {
		store, err := setupStore(db, r.logger)
		if err != nil {
			return nil, fmt.Errorf("setup store: %w", err)
		}
		r.store = store
	}

	return r, nil
}

// contextActive reports whether this turn may read and persist a window.
func (r *Relay) contextActive() bool {
	return r.config.contextEnabled() && r.store != nil
}

// Wait blocks until detached background tasks finish. Delivery of those
// tasks is best-effort; Wait only drains the ones still in flight.
func (r *Relay) Wait() {
	r.tasks.Wait()
}
