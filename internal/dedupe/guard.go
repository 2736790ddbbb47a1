package dedupe

import (
	"regexp"

	"github.com/maine/ali_deals_bot/internal/deals"
)

// Тег подавления дублей. Каноническая текстовая форма — "(id:<product_id>)";
// в публикуемый пост он встраивается Markdown-ссылкой нулевой ширины, так что
// читатель его не видит, а сканер истории находит его по URL.
var (
	tagPattern    = regexp.MustCompile(`\(id:([A-Za-z0-9_-]+)\)`)
	hiddenPattern = regexp.MustCompile(`deal-id/([A-Za-z0-9_-]+)`)
	itemPattern   = regexp.MustCompile(`/item/(\d+)\.html`)
)

// Tag возвращает каноническую форму тега для идентификатора товара.
func Tag(productID string) string {
	return "(id:" + productID + ")"
}

// Stamp дописывает к телу поста скрытый тег. Пустой идентификатор не
// помечается: такой пост не дедуплицируется по этой оси.
func Stamp(body, productID string) string {
	if productID == "" {
		return body
	}
	// "‎" внутри скобок — символ нулевой ширины, ссылка не видна читателю
	return body + "\n[‎](http://deal-id/" + productID + ")"
}

// ExtractIDs вытаскивает из текста сообщения все идентификаторы товаров:
// скрытые теги, каноническую текстовую форму и видимые товарные ссылки
// (обратная совместимость со старыми постами без тега).
func ExtractIDs(text string) []string {
	var ids []string
	seen := map[string]struct{}{}
	for _, p := range []*regexp.Regexp{hiddenPattern, tagPattern, itemPattern} {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			if _, ok := seen[m[1]]; ok {
				continue
			}
			seen[m[1]] = struct{}{}
			ids = append(ids, m[1])
		}
	}
	return ids
}

// Guard решает, можно ли публиковать товар: проверяет множество уже
// обработанных в этом прогоне идентификаторов и историю целевого канала.
type Guard struct {
	history map[string]struct{}
}

// NewGuard строит гард по текстам недавних сообщений целевого канала.
func NewGuard(historyTexts []string) *Guard {
	history := map[string]struct{}{}
	for _, text := range historyTexts {
		for _, id := range ExtractIDs(text) {
			history[id] = struct{}{}
		}
	}
	return &Guard{history: history}
}

// KnownIDs возвращает количество идентификаторов, найденных в истории.
func (g *Guard) KnownIDs() int {
	return len(g.history)
}

// Stamp реализует часть контракта app.Guard поверх пакетной функции.
func (g *Guard) Stamp(body, productID string) string {
	return Stamp(body, productID)
}

// Eligible сообщает, проходит ли товар проверку на дубль. Кандидат без
// идентификатора всегда проходит: дедуплицировать его нечем, осознанный
// компромисс в пользу публикации.
func (g *Guard) Eligible(productID string, run *deals.RunState) bool {
	if productID == "" {
		return true
	}
	if run.Handled(productID) {
		return false
	}
	_, inHistory := g.history[productID]
	return !inHistory
}
