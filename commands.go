package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chhongzh/shlex"
	"go.uber.org/zap"
)

// commandEchoPrefix marks bot replies that are command output, so they are
// never injected back into the conversation window.
const commandEchoPrefix = "COMMAND:"

// parseCommand splits "/cmd arg ..." into the lowercase command word and
// its arguments. A trailing "@botname" on the word is dropped. ok is false
// for non-command text.
func parseCommand(text string) (string, []string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	parts, err := shlex.Split(strings.TrimSpace(text[1:]))
	if err != nil || len(parts) == 0 {
		return "", nil, false
	}
	word := strings.ToLower(strings.SplitN(parts[0], "@", 2)[0])
	return word, parts[1:], true
}

// interceptCommand short-circuits the completion flow for commands that
// never need the loaded window. /context is intercepted later, once the
// window is assembled.
func (r *Relay) interceptCommand(ctx context.Context, chatID int64, chatKey string, username string, text string) (j, bool) {
	word, _, ok := parseCommand(text)
	if !ok {
		return nil, false
	}

	switch word {
	case "start", "chatgpt":
		return r.commandGreeting(chatID, username), true
	case "clear":
		return r.commandClear(ctx, chatID, chatKey), true
	}

	return nil, false
}

func (r *Relay) commandGreeting(chatID int64, username string) j {
	text := fmt.Sprintf("%s Hi @%s! I'm a chatbot powered by OpenAI! Reply your query to this message!",
		commandEchoPrefix, username)
	return r.buildSendMessage(chatID, text, sendMessageOptions{
		ForceReply:  true,
		Placeholder: "Ask me anything!",
	})
}

func (r *Relay) commandClear(ctx context.Context, chatID int64, chatKey string) j {
	text := commandEchoPrefix + " Context for the current chat (if it existed) has been cleared."
	if err := r.clearContext(ctx, chatKey); err != nil {
		text = commandEchoPrefix + " Could not clear the stored context, please retry."
	}
	return r.buildSendMessage(chatID, text, sendMessageOptions{
		RemoveKeyboard: true,
	})
}

// clearContext overwrites the stored window with an empty one. A disabled
// context feature clears nothing and is still a success.
func (r *Relay) clearContext(ctx context.Context, chatKey string) error {
	if !r.contextActive() {
		return nil
	}
	if err := r.store.Save(ctx, chatKey, nil); err != nil {
		r.logger.Error("Clearing context failed",
			zap.String("Chat Key", chatKey),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *Relay) commandContextDump(chatID int64, window []Message) j {
	return r.buildSendMessage(chatID, contextDumpText(window), sendMessageOptions{})
}

func contextDumpText(window []Message) string {
	if len(window) == 0 {
		return commandEchoPrefix + " Context is empty or not available."
	}
	dump, err := json.Marshal(window)
	if err != nil {
		return commandEchoPrefix + " Context is empty or not available."
	}
	return commandEchoPrefix + " " + sanitizeMarkdown(string(dump))
}
