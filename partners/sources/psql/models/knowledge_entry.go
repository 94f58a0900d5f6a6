package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	KindDirect = "direct"
	KindCards  = "cards"
)

// KnowledgeEntry is one row of the optional DB-backed knowledge table.
// Rows are read once at boot; the gateway never writes them at runtime.
type KnowledgeEntry struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Utterance string    `json:"utterance" gorm:"type:text;not null;uniqueIndex"`
	Kind      string    `json:"kind" gorm:"type:varchar(16);not null"`
	Reply     string    `json:"reply" gorm:"type:text"`
	CardsJSON string    `json:"cards_json" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (KnowledgeEntry) TableName() string {
	return "knowledge_entries"
}

func (e *KnowledgeEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
