// Package knowledge holds the boot-time lookup tables that let the gateway
// answer well-known utterances without spending an AI call, plus the
// classifier that picks between direct reply, card reply and AI fallback.
package knowledge

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"partners/partners/utils/types"

	"gopkg.in/yaml.v3"
)

type DecisionKind int

const (
	DirectReply DecisionKind = iota
	CardReply
	AIFallback
)

// Decision is the classification outcome for one utterance.
type Decision struct {
	Kind            DecisionKind
	Reply           string
	Cards           types.CardSet
	NeedsSearchHint bool
}

// Tables is immutable after construction; every request only reads it.
type Tables struct {
	direct   map[string]string
	cards    map[string]types.CardSet
	searchRe *regexp.Regexp
}

// Normalize is the single normalization applied before any table lookup.
// Casing and punctuation are deliberately left alone, so two utterances
// differing in either are distinct keys.
func Normalize(s string) string {
	return strings.TrimSpace(s)
}

// File is the YAML shape of an external knowledge table file.
type File struct {
	Direct         map[string]string        `yaml:"direct"`
	Cards          map[string]types.CardSet `yaml:"cards"`
	SearchPatterns []string                 `yaml:"search_patterns"`
}

// defaultSearchPatterns is the trigger vocabulary for the search hint:
// schedule/match, market/price and news-like terms, Thai and English.
var defaultSearchPatterns = []string{
	"ตาราง", "แข่ง", "ซีเกมส์", "ผลบอล",
	"ราคา", "ทอง", "หุ้น",
	"ข่าว",
	"schedule", "match", "fixture", "score",
	"price", "stock", "gold",
	"news",
}

// Default returns the built-in tables shipped with the gateway.
func Default() *Tables {
	direct := map[string]string{}
	for _, k := range []string{"เมนู", "เปิดเมนู", "Feature", "ฟีเจอร์", "help"} {
		direct[k] = "[UI_MENU]"
	}

	cards := map[string]types.CardSet{
		"ตารางแข่งซีเกมส์วันนี้": {
			{Title: "ฟุตบอลชาย รอบรองชนะเลิศ", Time: "15:00 น.", Venue: "สนามกีฬาแห่งชาติ", Category: "Football"},
			{Title: "ว่ายน้ำ 100 เมตร ชาย", Time: "16:30 น.", Venue: "สระว่ายน้ำหลัก", Category: "Swim"},
		},
		"ราคาทองวันนี้": {
			{Title: "ทองคำแท่ง ขายออก", Time: "อัพเดทล่าสุด", Venue: "สมาคมค้าทอง", Category: "Gold"},
			{Title: "ทองรูปพรรณ ขายออก", Time: "อัพเดทล่าสุด", Venue: "สมาคมค้าทอง", Category: "Gold"},
		},
	}
	// shorthand key the front end sends from the quick-action chip
	cards["ราคาทอง"] = cards["ราคาทองวันนี้"]

	t, _ := build(direct, cards, defaultSearchPatterns)
	return t
}

// LoadFile replaces the built-ins with tables read from a YAML file.
// Missing sections fall back to the defaults.
func LoadFile(path string) (*Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse knowledge file %s: %w", path, err)
	}

	base := Default()
	direct := base.direct
	cards := base.cards
	patterns := defaultSearchPatterns
	if len(f.Direct) > 0 {
		direct = normalizeKeys(f.Direct)
	}
	if len(f.Cards) > 0 {
		cards = map[string]types.CardSet{}
		for k, v := range f.Cards {
			cards[Normalize(k)] = v
		}
	}
	if len(f.SearchPatterns) > 0 {
		patterns = f.SearchPatterns
	}
	return build(direct, cards, patterns)
}

// Merge overlays extra entries on top of t, returning a new Tables. Used for
// the DB source at boot; later sources win on key collisions.
func (t *Tables) Merge(direct map[string]string, cards map[string]types.CardSet) *Tables {
	md := make(map[string]string, len(t.direct)+len(direct))
	for k, v := range t.direct {
		md[k] = v
	}
	for k, v := range direct {
		md[Normalize(k)] = v
	}
	mc := make(map[string]types.CardSet, len(t.cards)+len(cards))
	for k, v := range t.cards {
		mc[k] = v
	}
	for k, v := range cards {
		mc[Normalize(k)] = v
	}
	return &Tables{direct: md, cards: mc, searchRe: t.searchRe}
}

func normalizeKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[Normalize(k)] = v
	}
	return out
}

func build(direct map[string]string, cards map[string]types.CardSet, patterns []string) (*Tables, error) {
	quoted := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(p))
	}
	re, err := regexp.Compile("(?i)(" + strings.Join(quoted, "|") + ")")
	if err != nil {
		return nil, fmt.Errorf("compile search patterns: %w", err)
	}
	return &Tables{direct: normalizeKeys(direct), cards: cards, searchRe: re}, nil
}

// Classify resolves one utterance. Precedence is fixed: the direct-reply
// table wins over the card table, which wins over AI fallback. There is no
// failure mode; no match always means fallback.
func (t *Tables) Classify(utterance string) Decision {
	key := Normalize(utterance)

	if reply, ok := t.direct[key]; ok {
		return Decision{Kind: DirectReply, Reply: reply}
	}
	if set, ok := t.cards[key]; ok {
		return Decision{Kind: CardReply, Cards: set}
	}
	return Decision{Kind: AIFallback, NeedsSearchHint: t.searchRe.MatchString(key)}
}

// Size reports table entry counts for startup logging.
func (t *Tables) Size() (direct, cards int) {
	return len(t.direct), len(t.cards)
}
