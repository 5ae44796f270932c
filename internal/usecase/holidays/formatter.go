package holidays

import (
	"fmt"
	"strings"

	"tg-holiday-bot/internal/domain"
)

// FormatResult формирует текст ответа со списком праздников на день.
func FormatResult(res domain.HolidayResult, matcher domain.EmojiMatcher) string {
	if !res.HasData() {
		if res.Err != "" {
			return res.Err
		}
		return msgNoneFound
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Праздники на %s:", res.Date.Format("02.01.2006"))
	for _, h := range res.Holidays {
		b.WriteString("\n- " + matcher.Decorate(h))
	}
	return b.String()
}
