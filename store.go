package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContextStore persists the rolling conversation window per chat key.
// There is no compare-and-swap: two concurrent turns on the same key race
// and the later Save wins.
type ContextStore interface {
	Load(ctx context.Context, chatKey string) ([]Message, error)
	Save(ctx context.Context, chatKey string, window []Message) error
}

type dbContextStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Load returns the stored window for chatKey. A missing row or unparseable
// value is an empty window, not an error; only store transport failures
// propagate.
func (s *dbContextStore) Load(ctx context.Context, chatKey string) ([]Message, error) {
	record, err := gorm.G[contextRecord](s.db).Where("chat_key = ?", chatKey).Last(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load context %q: %w", chatKey, err)
	}

	window, err := decodeContext(record.InJSON)
	if err != nil {
		s.logger.Warn("Stored context is unparseable, starting fresh",
			zap.String("Chat Key", chatKey),
			zap.Error(err),
		)
		return nil, nil
	}

	return window, nil
}

// Save upserts the window for chatKey, last write wins.
func (s *dbContextStore) Save(ctx context.Context, chatKey string, window []Message) error {
	inJSON, err := encodeContext(window)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"in_json"}),
		}).
		Create(&contextRecord{ChatKey: chatKey, InJSON: inJSON}).Error
	if err != nil {
		return fmt.Errorf("save context %q: %w", chatKey, err)
	}

	return nil
}

func encodeContext(window []Message) (string, error) {
	if window == nil {
		window = []Message{}
	}
	inJSON, err := json.Marshal(window)
	if err != nil {
		return "", fmt.Errorf("encode context: %w", err)
	}
	return string(inJSON), nil
}

func decodeContext(raw string) ([]Message, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}

	var window []Message
	if err := json.Unmarshal([]byte(raw), &window); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	return window, nil
}
