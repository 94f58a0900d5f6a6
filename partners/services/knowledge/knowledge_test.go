package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"partners/partners/utils/types"
)

func TestClassifyDirectReply(t *testing.T) {
	tables := Default()

	for _, utterance := range []string{"เมนู", "help", "  help  ", "\nเปิดเมนู\t"} {
		d := tables.Classify(utterance)
		if d.Kind != DirectReply {
			t.Errorf("Classify(%q): expected DirectReply, got %v", utterance, d.Kind)
		}
		if d.Reply != "[UI_MENU]" {
			t.Errorf("Classify(%q): expected [UI_MENU], got %q", utterance, d.Reply)
		}
	}
}

func TestClassifyCardReply(t *testing.T) {
	tables := Default()

	d := tables.Classify("ราคาทองวันนี้")
	if d.Kind != CardReply {
		t.Fatalf("expected CardReply, got %v", d.Kind)
	}
	if len(d.Cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(d.Cards))
	}
	if d.Cards[0].Title != "ทองคำแท่ง ขายออก" || d.Cards[0].Category != "Gold" {
		t.Errorf("unexpected first card: %+v", d.Cards[0])
	}
	if d.Cards[1].Title != "ทองรูปพรรณ ขายออก" {
		t.Errorf("card order not preserved: %+v", d.Cards[1])
	}
}

func TestClassifyPrecedenceDirectWins(t *testing.T) {
	direct := map[string]string{"ราคาทองวันนี้": "ask the gold association"}
	cards := map[string]types.CardSet{
		"ราคาทองวันนี้": {{Title: "x", Time: "y", Venue: "z", Category: "Gold"}},
	}
	tables, err := build(direct, cards, defaultSearchPatterns)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	d := tables.Classify("ราคาทองวันนี้")
	if d.Kind != DirectReply {
		t.Fatalf("expected direct table to win over card table, got %v", d.Kind)
	}
	if d.Reply != "ask the gold association" {
		t.Errorf("unexpected reply: %q", d.Reply)
	}
}

func TestClassifyFallback(t *testing.T) {
	tables := Default()

	cases := []struct {
		utterance string
		wantHint  bool
	}{
		{"hello there", false},
		{"what is the gold PRICE today", true},
		{"ขอตารางแข่งพรุ่งนี้", true},
		{"Any NEWS about the election?", true},
		{"tell me a joke", false},
		// casing makes table keys distinct, so this falls through
		{"HELP", false},
	}
	for _, tc := range cases {
		d := tables.Classify(tc.utterance)
		if d.Kind != AIFallback {
			t.Errorf("Classify(%q): expected AIFallback, got %v", tc.utterance, d.Kind)
			continue
		}
		if d.NeedsSearchHint != tc.wantHint {
			t.Errorf("Classify(%q): expected hint=%v, got %v", tc.utterance, tc.wantHint, d.NeedsSearchHint)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  ราคาทองวันนี้\n"); got != "ราคาทองวันนี้" {
		t.Errorf("Normalize trimmed wrong: %q", got)
	}
	// casing is intentionally preserved
	if got := Normalize("Help"); got != "Help" {
		t.Errorf("Normalize should not casefold: %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	content := `
direct:
  "ping": "pong"
cards:
  "ตลาดหุ้นวันนี้":
    - title: "SET Index"
      time: "ปิดตลาด"
      venue: "ตลาดหลักทรัพย์"
      category: "Stock"
search_patterns:
  - "ราคา"
  - "news"
`
	path := filepath.Join(t.TempDir(), "knowledge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	tables, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if d := tables.Classify("ping"); d.Kind != DirectReply || d.Reply != "pong" {
		t.Errorf("file direct entry not loaded: %+v", d)
	}
	if d := tables.Classify("ตลาดหุ้นวันนี้"); d.Kind != CardReply || len(d.Cards) != 1 {
		t.Fatalf("file card entry not loaded: %+v", d)
	}
	if d := tables.Classify("ตลาดหุ้นวันนี้"); d.Cards[0].Category != "Stock" {
		t.Errorf("card fields not parsed: %+v", d.Cards[0])
	}
	// file tables replace the built-ins
	if d := tables.Classify("เมนู"); d.Kind != AIFallback {
		t.Errorf("built-in direct table should be replaced, got %v", d.Kind)
	}
	// file patterns replace the defaults too
	if d := tables.Classify("football schedule please"); d.NeedsSearchHint {
		t.Errorf("default patterns should be replaced by file patterns")
	}
	if d := tables.Classify("ราคา bitcoin"); !d.NeedsSearchHint {
		t.Errorf("file pattern should match")
	}
}

func TestMerge(t *testing.T) {
	tables := Default().Merge(
		map[string]string{"เมนู": "see the sidebar", "ping": "pong"},
		map[string]types.CardSet{"ข่าวเช้านี้": {{Title: "n", Time: "t", Venue: "v", Category: "News"}}},
	)

	if d := tables.Classify("เมนู"); d.Reply != "see the sidebar" {
		t.Errorf("merged entry should win on collision, got %q", d.Reply)
	}
	if d := tables.Classify("ping"); d.Kind != DirectReply {
		t.Errorf("merged direct entry missing")
	}
	if d := tables.Classify("ข่าวเช้านี้"); d.Kind != CardReply {
		t.Errorf("merged card entry missing")
	}
	if d := tables.Classify("ราคาทองวันนี้"); d.Kind != CardReply {
		t.Errorf("base entries should survive merge")
	}
}
