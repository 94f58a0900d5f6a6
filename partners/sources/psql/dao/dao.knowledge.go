package dao

import (
	"context"
	"encoding/json"
	"fmt"

	"partners/partners/sources/psql/models"
	"partners/partners/utils/types"

	"gorm.io/gorm"
)

type KnowledgeDAO struct {
	DB *gorm.DB
}

func NewKnowledgeDAO(db *gorm.DB) *KnowledgeDAO {
	return &KnowledgeDAO{DB: db}
}

func (dao *KnowledgeDAO) GetAll(ctx context.Context) ([]models.KnowledgeEntry, error) {
	var entries []models.KnowledgeEntry
	err := dao.DB.WithContext(ctx).Order("created_at asc").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (dao *KnowledgeDAO) Create(ctx context.Context, entry *models.KnowledgeEntry) error {
	return dao.DB.WithContext(ctx).Create(entry).Error
}

// LoadTables splits all rows into the two lookup maps consumed by the
// knowledge package. Card rows carry their set as a JSON array.
func (dao *KnowledgeDAO) LoadTables(ctx context.Context) (map[string]string, map[string]types.CardSet, error) {
	entries, err := dao.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	direct := map[string]string{}
	cards := map[string]types.CardSet{}
	for _, e := range entries {
		switch e.Kind {
		case models.KindDirect:
			direct[e.Utterance] = e.Reply
		case models.KindCards:
			var set types.CardSet
			if err := json.Unmarshal([]byte(e.CardsJSON), &set); err != nil {
				return nil, nil, fmt.Errorf("bad cards_json for %q: %w", e.Utterance, err)
			}
			cards[e.Utterance] = set
		default:
			return nil, nil, fmt.Errorf("unknown knowledge kind %q for %q", e.Kind, e.Utterance)
		}
	}
	return direct, cards, nil
}
