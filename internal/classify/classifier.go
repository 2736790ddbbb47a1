package classify

import (
	"strings"
	"time"

	"github.com/maine/ali_deals_bot/internal/deals"
)

// defaultAllowKeywords — встроенный allow-лист на случай пустой конфигурации.
var defaultAllowKeywords = []string{
	"скидка", "распродажа", "акция", "купон", "промокод", "дил",
	"deal", "sale", "discount", "coupon", "aliexpress", "алиэкспресс",
}

// Classifier решает, является ли сообщение публикуемым дилом.
type Classifier struct {
	maxAge   time.Duration
	minViews int
	allow    []string
	block    []string
	clock    func() time.Time
}

// Options — параметры классификатора.
type Options struct {
	MaxAge   time.Duration
	MinViews int
	Allow    []string
	Block    []string
	Clock    func() time.Time
}

// New создаёт классификатор. Пустой allow-лист заменяется встроенным
// дефолтным набором.
func New(opts Options) *Classifier {
	allow := opts.Allow
	if len(allow) == 0 {
		allow = defaultAllowKeywords
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Classifier{
		maxAge:   opts.MaxAge,
		minViews: opts.MinViews,
		allow:    lowerAll(allow),
		block:    lowerAll(opts.Block),
		clock:    clock,
	}
}

// Classify выполняет проверки в фиксированном порядке и останавливается на
// первой неудаче. Порядок важен: block-лист проверяется до allow-листа,
// чтобы одно запрещённое слово ветировало сообщение независимо от остального.
func (c *Classifier) Classify(cand deals.Candidate) (bool, deals.SkipReason) {
	if c.maxAge > 0 && cand.PostedAt.Before(c.clock().Add(-c.maxAge)) {
		return false, deals.SkipStale
	}

	if len(cand.Links) == 0 {
		return false, deals.SkipNoLink
	}

	text := strings.ToLower(cand.Text)

	for _, kw := range c.block {
		if strings.Contains(text, kw) {
			return false, deals.SkipBlockedKeyword
		}
	}

	if !containsAny(text, c.allow) {
		return false, deals.SkipNoAllowKeyword
	}

	// Неизвестное количество просмотров не повод для отказа (fail open)
	if c.minViews > 0 && cand.Views != nil && *cand.Views < c.minViews {
		return false, deals.SkipLowViews
	}

	return true, ""
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func lowerAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
