// Package calend загружает и разбирает страницу праздников calend.ru.
package calend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"tg-holiday-bot/internal/domain"
	"tg-holiday-bot/internal/infra/metrics"
)

const baseURL = "https://www.calend.ru/day/"

// Client реализует domain.HolidaySource поверх calend.ru.
type Client struct {
	httpClient *http.Client
	log        zerolog.Logger
}

var _ domain.HolidaySource = (*Client)(nil)

// NewClient создаёт клиент с таймаутом по умолчанию.
func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger,
	}
}

// DayURL возвращает адрес страницы праздников на дату.
func (c *Client) DayURL(date time.Time) string {
	return fmt.Sprintf("%s%s/", baseURL, date.Format("2006-01-02"))
}

// FetchDay скачивает страницу и возвращает праздники в порядке появления.
func (c *Client) FetchDay(ctx context.Context, date time.Time) ([]string, error) {
	url := c.DayURL(date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("формирование запроса %s: %w", url, err)
	}
	// Без браузерных заголовков calend.ru отдаёт заглушку.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveFetch(start, err)
	if err != nil {
		return nil, fmt.Errorf("запрос %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calend.ru ответил статусом %d на %s", resp.StatusCode, url)
	}

	holidays, err := ParseHolidays(resp.Body, date)
	if err != nil {
		return nil, fmt.Errorf("разбор страницы %s: %w", url, err)
	}
	if len(holidays) == 0 {
		c.log.Warn().Str("url", url).Str("date", date.Format(domain.DateLayout)).Msg("на странице не найдено праздников")
	} else {
		c.log.Debug().Str("date", date.Format(domain.DateLayout)).Int("count", len(holidays)).Msg("праздники загружены")
	}
	return holidays, nil
}

// ParseHolidays извлекает названия праздников из блока дня.
// calend.ru размечает день как div с id вида div_2025-12-2 — без ведущих
// нулей в месяце и дне; праздники — ссылки с «/holidays/0/0/» в href.
func ParseHolidays(r io.Reader, date time.Time) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("разбор HTML: %w", err)
	}
	divID := fmt.Sprintf("div_%d-%d-%d", date.Year(), int(date.Month()), date.Day())
	day := findByID(doc, divID)
	if day == nil {
		return nil, nil
	}
	var holidays []string
	collectHolidayLinks(day, &holidays)
	return holidays, nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == "div" && attr(n, "id") == id {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func collectHolidayLinks(n *html.Node, out *[]string) {
	if n.Type == html.ElementNode && n.Data == "a" && strings.Contains(attr(n, "href"), "/holidays/0/0/") {
		if name := nodeText(n); name != "" {
			*out = append(*out, name)
		}
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectHolidayLinks(child, out)
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
