package calend

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const samplePage = `<!DOCTYPE html>
<html><body>
<div id="wrap">
  <div id="div_2025-5-7">
    <div class="block holidays">
      <ul>
        <li><a href="/holidays/0/0/52/">День радио</a></li>
        <li><a href="/holidays/0/0/3041/"><span>Международный</span> день астрономии</a></li>
        <li><a href="/events/0/0/99/">Не праздник, а событие</a></li>
      </ul>
    </div>
  </div>
  <div id="div_2025-5-8">
    <a href="/holidays/0/0/53/">Праздник другого дня</a>
  </div>
</div>
</body></html>`

func TestParseHolidaysCollectsAnchorsInOrder(t *testing.T) {
	date := time.Date(2025, time.May, 7, 0, 0, 0, 0, time.UTC)
	holidays, err := ParseHolidays(strings.NewReader(samplePage), date)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	want := []string{"День радио", "Международный день астрономии"}
	if len(holidays) != len(want) {
		t.Fatalf("ожидали %d праздников, получили %v", len(want), holidays)
	}
	for i := range want {
		if holidays[i] != want[i] {
			t.Fatalf("позиция %d: ожидали %q, получили %q", i, want[i], holidays[i])
		}
	}
}

func TestParseHolidaysUsesUnpaddedDivID(t *testing.T) {
	// calend.ru не дополняет месяц и день нулями: div_2025-5-8, не div_2025-05-08.
	date := time.Date(2025, time.May, 8, 0, 0, 0, 0, time.UTC)
	holidays, err := ParseHolidays(strings.NewReader(samplePage), date)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(holidays) != 1 || holidays[0] != "Праздник другого дня" {
		t.Fatalf("неожиданный результат: %v", holidays)
	}
}

func TestParseHolidaysMissingDay(t *testing.T) {
	date := time.Date(2025, time.December, 2, 0, 0, 0, 0, time.UTC)
	holidays, err := ParseHolidays(strings.NewReader(samplePage), date)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(holidays) != 0 {
		t.Fatalf("для отсутствующего дня ожидали пустой список, получили %v", holidays)
	}
}

func TestDayURL(t *testing.T) {
	c := NewClient(zerolog.Nop())
	date := time.Date(2025, time.December, 2, 0, 0, 0, 0, time.UTC)
	if got := c.DayURL(date); got != "https://www.calend.ru/day/2025-12-02/" {
		t.Fatalf("неожиданный адрес: %s", got)
	}
}
