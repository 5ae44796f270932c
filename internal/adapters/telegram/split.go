package telegram

import (
	"strings"
	"unicode/utf8"
)

const messageLimit = 4096

// SplitMessage разбивает текст на части в пределах лимита Telegram,
// по возможности не разрывая строки: длинные списки праздников
// остаются читабельными.
func SplitMessage(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if utf8.RuneCountInString(trimmed) <= messageLimit {
		return []string{trimmed}
	}

	var parts []string
	flush := func(chunk []rune) []rune {
		if piece := strings.Trim(string(chunk), "\n"); piece != "" {
			parts = append(parts, piece)
		}
		return chunk[:0]
	}

	var current []rune
	for _, line := range strings.Split(trimmed, "\n") {
		runes := []rune(line)
		for len(runes) > messageLimit {
			current = flush(current)
			parts = append(parts, string(runes[:messageLimit]))
			runes = runes[messageLimit:]
		}
		if len(current) > 0 && len(current)+len(runes)+1 > messageLimit {
			current = flush(current)
		}
		if len(current) > 0 {
			current = append(current, '\n')
		}
		current = append(current, runes...)
	}
	flush(current)

	if len(parts) == 0 {
		return []string{trimmed}
	}
	return parts
}
