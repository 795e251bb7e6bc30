package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ServeHTTP handles one webhook invocation. The response either carries a
// Telegram method payload as its body or is an empty "no action" success;
// failed authentication gets 401 with no body.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !r.authenticate(req) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil || !gjson.ValidBytes(body) {
		r.respondEmpty(w)
		return
	}

	var update models.Update
	if err := json.Unmarshal(body, &update); err != nil {
		r.respondEmpty(w)
		return
	}

	username := senderUsername(&update)
	if !r.config.isWhitelisted(username) {
		r.respondEmpty(w)
		return
	}

	payload, err := r.dispatch(req.Context(), &update, username)
	if err != nil {
		r.logger.Error("Dispatch failed",
			zap.Int64("Update ID", update.ID),
			zap.Error(err),
		)
		r.respondEmpty(w)
		return
	}
	if payload == nil {
		r.respondEmpty(w)
		return
	}

	r.respondJSON(w, payload)
}

// authenticate enforces the token suffix on the request path and, when
// configured, the deployment's origin header.
func (r *Relay) authenticate(req *http.Request) bool {
	if r.config.BotToken == "" || !strings.HasSuffix(req.URL.Path, r.config.BotToken) {
		return false
	}
	if r.config.OriginHeader != "" && req.Header.Get(r.config.OriginHeader) != r.config.OriginValue {
		return false
	}
	return true
}

// dispatch routes the single populated update variant. Anything else is a
// no-op.
func (r *Relay) dispatch(ctx context.Context, update *models.Update, username string) (j, error) {
	switch {
	case update.InlineQuery != nil:
		return r.handleInlineQuery(update.InlineQuery)
	case update.CallbackQuery != nil:
		return r.handleCallbackQuery(ctx, update.CallbackQuery, username)
	case update.Message != nil && update.Message.Text != "":
		return r.handleMessage(ctx, update.Message, username)
	default:
		return nil, nil
	}
}

func senderUsername(update *models.Update) string {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.Username
	case update.InlineQuery != nil && update.InlineQuery.From != nil:
		return update.InlineQuery.From.Username
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.Username
	}
	return ""
}

func (r *Relay) respondEmpty(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

func (r *Relay) respondJSON(w http.ResponseWriter, payload j) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.logger.Error("Encoding webhook response failed", zap.Error(err))
	}
}
