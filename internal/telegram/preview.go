package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Message — одно сообщение канала из веб-превью t.me/s/<channel>.
// Views — указатель: превью не всегда отдаёт счётчик просмотров.
// LinkHrefs — адреса ссылок внутри текста: текст анкора может не совпадать
// с URL (короткие ссылки "Купить тут" и скрытые теги нулевой ширины).
type Message struct {
	ID        int64
	Channel   string
	Text      string
	LinkHrefs []string
	Views     *int
	PostedAt  time.Time
}

// PreviewFetcher читает публичное веб-превью канала. Bot API не умеет читать
// историю каналов, поэтому и сканирование источников, и поиск тегов в истории
// целевого канала идут через превью-страницу.
type PreviewFetcher struct {
	client  *http.Client
	baseURL string
}

// NewPreviewFetcher создаёт фетчер. client nil означает клиент с дефолтным
// таймаутом; baseURL переопределяется только в тестах.
func NewPreviewFetcher(client *http.Client) *PreviewFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &PreviewFetcher{
		client:  client,
		baseURL: "https://t.me",
	}
}

// Recent возвращает до limit последних сообщений канала, новые первыми.
// Превью отдаёт примерно по 20 сообщений на страницу; более старые страницы
// подгружаются через параметр before.
func (f *PreviewFetcher) Recent(ctx context.Context, channel string, limit int) ([]Message, error) {
	channel = strings.TrimPrefix(strings.TrimSpace(channel), "@")
	if channel == "" {
		return nil, fmt.Errorf("empty channel name")
	}
	if limit <= 0 {
		limit = 20
	}

	var collected []Message
	var before int64

	// Страховка от зацикливания на неожиданной разметке
	maxPages := limit/20 + 2

	for page := 0; page < maxPages && len(collected) < limit; page++ {
		batch, err := f.fetchPage(ctx, channel, before)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		// На странице сообщения идут от старых к новым
		oldest := batch[0].ID
		if before != 0 && oldest >= before {
			break
		}
		before = oldest

		collected = append(batch, collected...)
	}

	if len(collected) > limit {
		collected = collected[len(collected)-limit:]
	}

	// Переворачиваем: новые первыми
	out := make([]Message, 0, len(collected))
	for i := len(collected) - 1; i >= 0; i-- {
		out = append(out, collected[i])
	}
	return out, nil
}

func (f *PreviewFetcher) fetchPage(ctx context.Context, channel string, before int64) ([]Message, error) {
	u := fmt.Sprintf("%s/s/%s", f.baseURL, url.PathEscape(channel))
	if before > 0 {
		u += fmt.Sprintf("?before=%d", before)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch preview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("preview status %d for %s", resp.StatusCode, channel)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse preview html: %w", err)
	}

	return parseMessages(doc, channel), nil
}

// parseMessages разбирает виджеты сообщений со страницы превью.
func parseMessages(doc *goquery.Document, channel string) []Message {
	var messages []Message

	doc.Find(".tgme_widget_message").Each(func(_ int, sel *goquery.Selection) {
		post, ok := sel.Attr("data-post")
		if !ok {
			return
		}
		id := parseMessageID(post)
		if id == 0 {
			return
		}

		textSel := sel.Find(".tgme_widget_message_text").First()
		msg := Message{
			ID:      id,
			Channel: channel,
			Text:    strings.TrimSpace(textSel.Text()),
		}

		textSel.Find("a").Each(func(_ int, a *goquery.Selection) {
			if href, ok := a.Attr("href"); ok && href != "" {
				msg.LinkHrefs = append(msg.LinkHrefs, href)
			}
		})

		if dt, ok := sel.Find(".tgme_widget_message_date time").First().Attr("datetime"); ok {
			if ts, err := time.Parse(time.RFC3339, dt); err == nil {
				msg.PostedAt = ts
			}
		}

		viewsText := strings.TrimSpace(sel.Find(".tgme_widget_message_views").First().Text())
		if v, ok := parseAbbrevCount(viewsText); ok {
			msg.Views = &v
		}

		messages = append(messages, msg)
	})

	return messages
}

// parseMessageID извлекает номер сообщения из атрибута data-post
// вида "channel/12345".
func parseMessageID(post string) int64 {
	idx := strings.LastIndex(post, "/")
	if idx < 0 {
		return 0
	}
	id, err := strconv.ParseInt(post[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

var abbrevPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)([KM]?)$`)

// parseAbbrevCount разбирает сокращённый счётчик превью: "456", "1.2K",
// "3.4M". Нераспознанное значение трактуется как неизвестное.
func parseAbbrevCount(raw string) (int, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	m := abbrevPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	switch m[2] {
	case "K":
		value *= 1000
	case "M":
		value *= 1000000
	}
	return int(value), true
}
