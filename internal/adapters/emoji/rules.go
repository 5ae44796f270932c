// Package emoji подбирает эмодзи к названиям праздников по подстрокам.
// Правила лежат в JSON-файле рядом с ботом; порядок правил определяет
// приоритет — выигрывает первое совпадение.
package emoji

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"tg-holiday-bot/internal/domain"
)

// Rule — пара «фрагмент названия → эмодзи».
type Rule struct {
	Fragment string
	Emoji    string
}

var defaultRules = []Rule{
	{"23 февр", "🪖"},
	{"отечест", "🪖"},
	{"новый год", "🎉"},
	{"рождеств", "🎄"},
	{"пасха", "✝️"},
	{"побед", "🎖️"},
	{"8 март", "🌷"},
	{"женски", "🌷"},
	{"валентин", "💘"},
	{"влюбл", "💘"},
	{"маслениц", "🥞"},
	{"труд", "🛠️"},
	{"мать", "🤱"},
	{"матери", "🤱"},
	{"отц", "👨‍👧"},
	{"день рождения", "🎂"},
	{"юбилей", "🎂"},
	{"город", "🏙️"},
	{"флаг", "🏳️"},
	{"язык", "🗣️"},
	{"радио", "📡"},
	{"космонавт", "🚀"},
	{"космос", "🚀"},
	{"учител", "📚"},
	{"экскурс", "🧭"},
	{"фельдшер", "🩺"},
	{"полярн", "🐻‍❄️"},
	{"оптимист", "😄"},
}

// DefaultRules возвращает копию встроенных правил.
func DefaultRules() []Rule {
	rules := make([]Rule, len(defaultRules))
	copy(rules, defaultRules)
	return rules
}

// Matcher реализует domain.EmojiMatcher по упорядоченному списку правил.
type Matcher struct {
	rules []Rule
}

var _ domain.EmojiMatcher = (*Matcher)(nil)

// NewMatcher создаёт матчер с заданными правилами.
func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{rules: rules}
}

// LoadMatcher читает правила из файла. Отсутствующий файл создаётся
// со встроенными правилами; некорректный — не фатален, берутся встроенные.
func LoadMatcher(path string, logger zerolog.Logger) *Matcher {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			writeDefaults(path, logger)
		} else {
			logger.Warn().Err(err).Str("path", path).Msg("не удалось прочитать правила эмодзи")
		}
		return NewMatcher(defaultRules)
	}
	rules, err := parseRules(raw)
	if err != nil || len(rules) == 0 {
		logger.Warn().Err(err).Str("path", path).Msg("правила эмодзи некорректны, использую встроенные")
		return NewMatcher(defaultRules)
	}
	return NewMatcher(rules)
}

// Match возвращает эмодзи первого совпавшего фрагмента либо значение по умолчанию.
func (m *Matcher) Match(name string) string {
	low := strings.ToLower(name)
	for _, r := range m.rules {
		if r.Fragment != "" && strings.Contains(low, r.Fragment) {
			return r.Emoji
		}
	}
	return domain.DefaultEmoji
}

// Decorate добавляет эмодзи перед названием праздника.
func (m *Matcher) Decorate(name string) string {
	return m.Match(name) + " " + name
}

// parseRules принимает массив пар ["фрагмент", "эмодзи"] либо массив
// объектов {"frag": ..., "emoji": ...} — оба формата встречались в проде.
func parseRules(raw []byte) ([]Rule, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	rules := make([]Rule, 0, len(items))
	for _, item := range items {
		var pair []string
		if err := json.Unmarshal(item, &pair); err == nil {
			if len(pair) >= 2 && pair[0] != "" {
				rules = append(rules, Rule{Fragment: strings.ToLower(pair[0]), Emoji: pair[1]})
			}
			continue
		}
		var obj struct {
			Frag  string `json:"frag"`
			Emoji string `json:"emoji"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Frag != "" && obj.Emoji != "" {
			rules = append(rules, Rule{Fragment: strings.ToLower(obj.Frag), Emoji: obj.Emoji})
		}
	}
	return rules, nil
}

func writeDefaults(path string, logger zerolog.Logger) {
	pairs := make([][]string, 0, len(defaultRules))
	for _, r := range defaultRules {
		pairs = append(pairs, []string{r.Fragment, r.Emoji})
	}
	data, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("не удалось записать правила эмодзи по умолчанию")
		return
	}
	logger.Info().Str("path", path).Msg("создан файл правил эмодзи по умолчанию")
}
