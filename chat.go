package relay

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const (
	processingNotice   = "(Processing...)"
	completionFailText = "The completion service failed, please try again."
)

// handleMessage runs one synchronous conversation turn for a plain chat
// message. The returned payload is the webhook response body.
func (r *Relay) handleMessage(ctx context.Context, msg *models.Message, username string) (j, error) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil, nil
	}

	chatKey := strconv.FormatInt(msg.Chat.ID, 10)

	if payload, done := r.interceptCommand(ctx, msg.Chat.ID, chatKey, username, text); done {
		return payload, nil
	}

	window, persistable := r.loadWindow(ctx, chatKey)
	window = injectRepliedMessage(window, msg.ReplyToMessage)
	window = truncateWindow(window, r.config.windowLimit())

	if word, _, ok := parseCommand(text); ok && word == "context" {
		return r.commandContextDump(msg.Chat.ID, window), nil
	}

	window = append(window, Message{Role: RoleUser, Content: text})
	window = truncateWindow(window, r.config.windowLimit())

	reply, err := r.complete(ctx, username, window)
	if err != nil {
		r.logger.Error("Completion failed",
			zap.Int64("Chat ID", msg.Chat.ID),
			zap.Error(err),
		)
		// Nothing is persisted; the user still gets a visible reply
		// instead of silence.
		return r.buildSendMessage(msg.Chat.ID, commandEchoPrefix+" "+completionFailText, sendMessageOptions{
			ReplyToMessageID: msg.ID,
		}), nil
	}

	if persistable {
		window = append(window, Message{Role: RoleAssistant, Content: reply})
		window = truncateWindow(window, r.config.windowLimit())
		if err := r.store.Save(ctx, chatKey, window); err != nil {
			r.logger.Error("Persisting context failed",
				zap.String("Chat Key", chatKey),
				zap.Error(err),
			)
		}
	}

	r.logger.Info("Turn completed",
		zap.Int64("Chat ID", msg.Chat.ID),
		zap.Int("Window", len(window)),
	)

	return r.buildSendMessage(msg.Chat.ID, sanitizeMarkdown(reply), sendMessageOptions{
		ReplyToMessageID: msg.ID,
		RemoveKeyboard:   true,
	}), nil
}

// handleInlineQuery answers query-as-you-type suggestions. An empty query
// gets the maintenance menu, anything else a confirmation suggestion.
func (r *Relay) handleInlineQuery(query *models.InlineQuery) (j, error) {
	text := strings.TrimSpace(query.Query)
	if text == "" {
		return r.buildEmptyQueryMenu(query.ID), nil
	}
	return r.buildAnswerInlineQuery(query.ID, text), nil
}

// handleCallbackQuery acknowledges the callback immediately and finishes the
// slow completion in a detached task: the platform expects the ack within
// seconds, the inline-message edit may take much longer.
func (r *Relay) handleCallbackQuery(ctx context.Context, callback *models.CallbackQuery, username string) (j, error) {
	data := strings.TrimSpace(callback.Data)
	if data == "" || len(data) > callbackDataLimit || callback.InlineMessageID == "" {
		// callback_data echoes arbitrary user text, treat it as hostile
		return r.buildAnswerCallbackQuery(callback.ID, ""), nil
	}

	inlineMessageID := callback.InlineMessageID
	// Inline-originated interactions carry no chat, so the window is keyed
	// by the sender instead.
	chatKey := "user:" + strconv.FormatInt(callback.From.ID, 10)

	if word, _, ok := parseCommand(data); ok {
		switch word {
		case "clear":
			text := commandEchoPrefix + " Context for the current chat (if it existed) has been cleared."
			if err := r.clearContext(ctx, chatKey); err != nil {
				text = commandEchoPrefix + " Could not clear the stored context, please retry."
			}
			r.editOrLog(ctx, inlineMessageID, text)
			return r.buildAnswerCallbackQuery(callback.ID, "Done."), nil
		case "context":
			window, _ := r.loadWindow(ctx, chatKey)
			window = truncateWindow(window, r.config.windowLimit())
			r.editOrLog(ctx, inlineMessageID, contextDumpText(window))
			return r.buildAnswerCallbackQuery(callback.ID, "Done."), nil
		}
	}

	r.editOrLog(ctx, inlineMessageID, data+"\n\n"+processingNotice)

	window, _ := r.loadWindow(ctx, chatKey)
	window = append(window, Message{Role: RoleUser, Content: data})
	window = truncateWindow(window, r.config.windowLimit())

	r.detach("callback completion", func(taskCtx context.Context) {
		reply, err := r.complete(taskCtx, username, window)
		if err != nil {
			r.logger.Error("Deferred completion failed",
				zap.String("Inline Message ID", inlineMessageID),
				zap.Error(err),
			)
			r.editOrLog(taskCtx, inlineMessageID, data+"\n\n"+commandEchoPrefix+" "+completionFailText)
			return
		}
		r.editOrLog(taskCtx, inlineMessageID, data+"\n\n"+reply)
	})

	return r.buildAnswerCallbackQuery(callback.ID, ""), nil
}

func (r *Relay) editOrLog(ctx context.Context, inlineMessageID string, text string) {
	if err := r.editInlineMessage(ctx, inlineMessageID, text); err != nil {
		r.logger.Error("Editing inline message failed",
			zap.String("Inline Message ID", inlineMessageID),
			zap.Error(err),
		)
	}
}

// loadWindow returns the stored window plus whether this turn may persist.
// Store unavailability degrades to "context disabled for this turn".
func (r *Relay) loadWindow(ctx context.Context, chatKey string) ([]Message, bool) {
	if !r.contextActive() {
		return nil, false
	}
	window, err := r.store.Load(ctx, chatKey)
	if err != nil {
		r.logger.Error("Loading context failed",
			zap.String("Chat Key", chatKey),
			zap.Error(err),
		)
		return nil, false
	}
	return window, true
}

// injectRepliedMessage folds the replied-to message into the window, unless
// it is command output (the echo marker keeps those out of conversation).
func injectRepliedMessage(window []Message, replied *models.Message) []Message {
	if replied == nil || replied.Text == "" {
		return window
	}
	if strings.HasPrefix(replied.Text, commandEchoPrefix) {
		return window
	}
	role := RoleUser
	if replied.From != nil && replied.From.IsBot {
		role = RoleAssistant
	}
	return append(window, Message{Role: role, Content: replied.Text})
}

// truncateWindow drops oldest entries until the window fits the limit.
func truncateWindow(window []Message, limit int) []Message {
	for len(window) > limit {
		window = window[1:]
	}
	return window
}
