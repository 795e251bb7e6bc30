package relay

import (
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (r *Relay) setupBot() error {
	// GetMe is skipped so construction stays offline; the client is only
	// exercised for active calls such as inline-message edits.
	opts := []bot.Option{
		bot.WithSkipGetMe(),
	}
	if r.config.TelegramServerURL != "" {
		opts = append(opts, bot.WithServerURL(r.config.TelegramServerURL))
	}

	bt, err := bot.New(r.config.BotToken, opts...)
	if err != nil {
		return err
	}

	r.bot = bt
	r.logger.Info("Bot client ready")

	return nil
}

func setupStore(db *gorm.DB, logger *zap.Logger) (ContextStore, error) {
	if err := db.AutoMigrate(&contextRecord{}); err != nil {
		return nil, err
	}
	return &dbContextStore{db: db, logger: logger.Named("ContextStore")}, nil
}
