package relay

import "gorm.io/gorm"

type contextRecord struct {
	gorm.Model

	ChatKey string `gorm:"uniqueIndex"`
	InJSON  string
}
