package relay

import (
	"context"
	"unicode/utf8"

	"github.com/go-telegram/bot"
)

// The builders below return payloads written directly as the webhook HTTP
// response body; Telegram executes the named method without the relay making
// a second outbound call.

// callbackDataLimit is Telegram's hard cap on callback_data bytes. The field
// echoes arbitrary user text, so it is clamped on emit and rejected on
// receipt when oversized.
const callbackDataLimit = 64

type sendMessageOptions struct {
	ForceReply       bool
	Placeholder      string
	RemoveKeyboard   bool
	ReplyToMessageID int
}

func (r *Relay) buildSendMessage(chatID int64, text string, opts sendMessageOptions) j {
	payload := j{
		"method":     "sendMessage",
		"chat_id":    chatID,
		"parse_mode": "Markdown",
		"text":       text,
	}
	if opts.ReplyToMessageID != 0 {
		payload["reply_to_message_id"] = opts.ReplyToMessageID
	}
	if opts.ForceReply {
		payload["reply_markup"] = j{
			"force_reply":             true,
			"input_field_placeholder": opts.Placeholder,
			"selective":               true,
		}
	} else if opts.RemoveKeyboard {
		payload["reply_markup"] = j{
			"remove_keyboard": true,
		}
	}
	return payload
}

// buildAnswerInlineQuery offers one confirmation suggestion whose accepted
// callback payload is the query text itself.
func (r *Relay) buildAnswerInlineQuery(queryID string, query string) j {
	return j{
		"method":          "answerInlineQuery",
		"inline_query_id": queryID,
		"results": []j{
			inlineArticle("ask", query, query, "Ask", clampCallbackData(query)),
		},
	}
}

// buildEmptyQueryMenu is the empty-state suggestion menu.
func (r *Relay) buildEmptyQueryMenu(queryID string) j {
	return j{
		"method":          "answerInlineQuery",
		"inline_query_id": queryID,
		"results": []j{
			inlineArticle("clear", "Clear the stored context", "/clear", "Run", "/clear"),
			inlineArticle("context", "Show the stored context", "/context", "Run", "/context"),
		},
	}
}

func inlineArticle(id, title, text, button, callbackData string) j {
	return j{
		"type":  "article",
		"id":    id,
		"title": title,
		"input_message_content": j{
			"message_text": text,
		},
		"reply_markup": j{
			"inline_keyboard": [][]j{{{
				"text":          button,
				"callback_data": callbackData,
			}}},
		},
	}
}

func (r *Relay) buildAnswerCallbackQuery(callbackID string, text string) j {
	payload := j{
		"method":            "answerCallbackQuery",
		"callback_query_id": callbackID,
	}
	if text != "" {
		payload["text"] = text
	}
	return payload
}

func clampCallbackData(data string) string {
	if len(data) <= callbackDataLimit {
		return data
	}
	cut := callbackDataLimit
	for cut > 0 && !utf8.ValidString(data[:cut]) {
		cut--
	}
	return data[:cut]
}

// editInlineMessage is an active API call: the target message is not tied to
// the current webhook invocation, so it cannot ride the response body.
func (r *Relay) editInlineMessage(ctx context.Context, inlineMessageID string, text string) error {
	_, err := r.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		InlineMessageID: inlineMessageID,
		Text:            text,
	})
	return err
}
