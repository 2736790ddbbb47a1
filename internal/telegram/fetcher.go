package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/maine/ali_deals_bot/internal/deals"
)

// SourceFetcher адаптирует веб-превью к контракту пайплайна app.Fetcher.
type SourceFetcher struct {
	preview *PreviewFetcher
}

// NewSourceFetcher создаёт адаптер.
func NewSourceFetcher(preview *PreviewFetcher) *SourceFetcher {
	return &SourceFetcher{preview: preview}
}

// Recent возвращает последних кандидатов канала, новые первыми.
func (f *SourceFetcher) Recent(ctx context.Context, channel string, limit int) ([]deals.Candidate, error) {
	messages, err := f.preview.Recent(ctx, channel, limit)
	if err != nil {
		return nil, err
	}

	out := make([]deals.Candidate, 0, len(messages))
	for _, msg := range messages {
		out = append(out, deals.Candidate{
			MessageID: strconv.FormatInt(msg.ID, 10),
			Channel:   channel,
			Text:      CombinedText(msg),
			Views:     msg.Views,
			PostedAt:  msg.PostedAt,
		})
	}
	return out, nil
}

// CombinedText склеивает текст сообщения с адресами его ссылок-анкоров:
// товарная ссылка часто спрятана за текстом вида "Купить тут" и в чистом
// тексте превью не встречается.
func CombinedText(msg Message) string {
	parts := []string{msg.Text}
	for _, href := range msg.LinkHrefs {
		if !strings.Contains(msg.Text, href) {
			parts = append(parts, href)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
