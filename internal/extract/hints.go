package extract

import (
	"regexp"
	"strings"

	"github.com/maine/ali_deals_bot/internal/deals"
)

// Паттерны подсказок. Подсказка попадает в результат только при уверенном
// совпадении: сомнительный текст лучше опустить, чем дать рерайтеру
// выдуманный факт.
var (
	pricePattern = regexp.MustCompile(`(?:₪|\$|€|₽|US ?\$)\s?\d+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?\s?(?:₪|\$|€|₽|руб\.?|грн)`)

	ratingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d[.,]\d)\s*(?:⭐|★|/\s?5)`),
		regexp.MustCompile(`(?i)(?:рейтинг|оценка|rating)[:\s]*(\d[.,]\d)`),
	}

	ordersPattern = regexp.MustCompile(`(?i)(\d[\d\s.,]*[km]?\+?)\s*(?:sold|orders?|заказов|заказа|продаж)`)

	couponPattern = regexp.MustCompile(`(?i)(?:промокод|купон|promo[\s-]?code|coupon|код)[:\s]+([A-Z0-9]{4,16})\b`)
)

// Hints реализует часть контракта app.Extractor поверх пакетной функции.
func (e *Extractor) Hints(text string) deals.Hints {
	return Hints(text)
}

// Hints извлекает структурированные подсказки из текста сообщения.
func Hints(text string) deals.Hints {
	var h deals.Hints

	if m := pricePattern.FindString(text); m != "" {
		h.Price = strings.TrimSpace(m)
	}

	for _, p := range ratingPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			h.Rating = strings.ReplaceAll(m[1], ",", ".")
			break
		}
	}

	if m := ordersPattern.FindStringSubmatch(text); m != nil {
		h.Orders = strings.TrimSpace(m[1])
	}

	seen := map[string]struct{}{}
	for _, m := range couponPattern.FindAllStringSubmatch(text, -1) {
		code := m[1]
		// (?i) распространяется и на группу кода, поэтому верхний регистр
		// проверяем вручную: "код: abcd" — это не промокод
		if code != strings.ToUpper(code) {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		h.Coupons = append(h.Coupons, code)
	}

	return h
}
