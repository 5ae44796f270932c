package emoji

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"tg-holiday-bot/internal/domain"
)

func TestMatchReturnsDefaultWhenNothingMatches(t *testing.T) {
	m := NewMatcher(defaultRules)
	if got := m.Match("Международный день кофе"); got != domain.DefaultEmoji {
		t.Fatalf("ожидали %s, получили %s", domain.DefaultEmoji, got)
	}
}

func TestMatchFindsFragment(t *testing.T) {
	m := NewMatcher(defaultRules)
	if got := m.Match("Международный день радио"); got != "📡" {
		t.Fatalf("ожидали 📡, получили %s", got)
	}
}

func TestMatchFirstRuleWins(t *testing.T) {
	m := NewMatcher([]Rule{{"день", "🅰"}, {"радио", "🅱"}})
	if got := m.Match("День радио"); got != "🅰" {
		t.Fatalf("порядок правил нарушен: получили %s", got)
	}
}

func TestDecorate(t *testing.T) {
	m := NewMatcher(defaultRules)
	if got := m.Decorate("День радио"); got != "📡 День радио" {
		t.Fatalf("неожиданный результат: %q", got)
	}
}

func TestLoadMatcherCreatesFileWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emojis.json")
	m := LoadMatcher(path, zerolog.Nop())
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("файл правил не создан: %v", err)
	}
	if got := m.Match("День радио"); got != "📡" {
		t.Fatalf("встроенные правила не применились: %s", got)
	}
}

func TestLoadMatcherMalformedFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emojis.json")
	if err := os.WriteFile(path, []byte("не json"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := LoadMatcher(path, zerolog.Nop())
	if got := m.Match("День радио"); got != "📡" {
		t.Fatalf("ожидали откат на встроенные правила, получили %s", got)
	}
}

func TestLoadMatcherAcceptsPairsAndObjects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emojis.json")
	raw := `[["Кофе", "☕"], {"frag": "чай", "emoji": "🍵"}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	m := LoadMatcher(path, zerolog.Nop())
	if got := m.Match("День кофе"); got != "☕" {
		t.Fatalf("пара не разобрана: %s", got)
	}
	if got := m.Match("День чая"); got != "🍵" {
		t.Fatalf("объект не разобран: %s", got)
	}
}
