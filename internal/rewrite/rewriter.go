package rewrite

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/maine/ali_deals_bot/internal/deals"
	"github.com/maine/ali_deals_bot/internal/gemini"
)

// linkBlockHeader — заголовок блока ссылки, в который рерайтер гарантированно
// помещает партнёрскую ссылку, если модель не вставила её сама.
const linkBlockHeader = "👇 Забрать по скидке:"

const maxSourceTextRunes = 600

var urlPattern = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)

// Rewriter переписывает текст дила через Gemini и приводит результат к
// инвариантам публикации. client может быть nil: тогда каждый кандидат
// получает детерминированный fallback-текст.
type Rewriter struct {
	client   gemini.GeminiClient
	model    string
	language string
}

// NewRewriter создаёт рерайтер.
func NewRewriter(client gemini.GeminiClient, model, language string) *Rewriter {
	return &Rewriter{
		client:   client,
		model:    model,
		language: language,
	}
}

// Render возвращает тело поста для публикации. Ошибки генерации — мягкие:
// каждый дошедший сюда кандидат гарантированно получает публикуемый текст.
func (r *Rewriter) Render(ctx context.Context, cand deals.Candidate, affiliateLink string) string {
	if r.client == nil {
		return fallbackBody(affiliateLink)
	}

	prompt := r.buildPrompt(cand)

	text, err := r.client.GenerateText(ctx, r.model, prompt)
	if err != nil {
		log.Printf("rewrite generation failed, using fallback: %v", err)
		return fallbackBody(affiliateLink)
	}

	body := Enforce(text, affiliateLink)
	if body == "" {
		return fallbackBody(affiliateLink)
	}
	return body
}

// Enforce приводит вывод модели к инвариантам: в тексте остаётся ровно одна
// ссылка — партнёрская. Все прочие URL вырезаются; отсутствующая партнёрская
// ссылка дописывается отдельным блоком.
func Enforce(text, affiliateLink string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	hasAffiliate := false
	text = urlPattern.ReplaceAllStringFunc(text, func(u string) string {
		if u == affiliateLink {
			hasAffiliate = true
			return u
		}
		return ""
	})

	text = tidy(text)
	if text == "" {
		return ""
	}

	if !hasAffiliate {
		text += "\n\n" + linkBlockHeader + "\n" + affiliateLink
	}
	return text
}

// fallbackBody — минимальный пост, когда генерация недоступна или вернула
// пустой результат.
func fallbackBody(affiliateLink string) string {
	return "🔥 Горячая находка на AliExpress!\n\n" + linkBlockHeader + "\n" + affiliateLink
}

func (r *Rewriter) buildPrompt(cand deals.Candidate) string {
	source := []rune(cand.Text)
	if len(source) > maxSourceTextRunes {
		source = source[:maxSourceTextRunes]
	}

	var hints strings.Builder
	if cand.Hints.Price != "" {
		fmt.Fprintf(&hints, "Цена: %s\n", cand.Hints.Price)
	}
	if cand.Hints.Rating != "" {
		fmt.Fprintf(&hints, "Рейтинг: %s\n", cand.Hints.Rating)
	}
	if cand.Hints.Orders != "" {
		fmt.Fprintf(&hints, "Количество заказов: %s\n", cand.Hints.Orders)
	}
	if len(cand.Hints.Coupons) > 0 {
		fmt.Fprintf(&hints, "Промокоды: %s\n", strings.Join(cand.Hints.Coupons, ", "))
	}
	if hints.Len() == 0 {
		hints.WriteString("нет\n")
	}

	return fmt.Sprintf(`Ты — копирайтер телеграм-канала с товарами AliExpress.
Перепиши пост о товаре. Пиши ТОЛЬКО на языке: %s.
Структура строго по порядку:
1. Вопрос-крючок одной строкой.
2. Строка с товаром как ответом на вопрос.
3. 3-6 буллетов с фактами о товаре.
4. Строка с ценой — только если цена передана в данных ниже.
5. Строка с рейтингом — только если рейтинг передан.
6. Строка с количеством заказов — только если оно передано.
7. Строка с промокодом — только если промокод передан.
Не больше 6 эмодзи на весь пост. Не выдумывай факты, которых нет в исходном
тексте и данных. Раздел без данных пропускай молча, не пиши заглушек.
Никаких хэштегов и ссылок — ссылку добавлю я сам.

Исходный текст:
%s

Структурированные данные:
%s`, r.language, string(source), hints.String())
}

// tidy убирает артефакты после вырезания ссылок: висячие пробелы и
// пустые строки более чем по две подряд.
func tidy(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}
