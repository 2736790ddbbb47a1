package deals

import "time"

// Candidate описывает одно входящее сообщение из канала-источника.
// Views — указатель: nil означает, что источник не отдал счётчик просмотров.
type Candidate struct {
	MessageID string
	Channel   string
	Text      string
	Views     *int
	PostedAt  time.Time
	Links     []ExtractedLink
	Hints     Hints
}

// ExtractedLink — распознанная коммерческая ссылка из текста сообщения.
// ProductID пустой, если стабильный идентификатор товара извлечь не удалось.
type ExtractedLink struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
	ProductID  string `json:"product_id,omitempty"`
}

// Hints — структурированные подсказки, уверенно распарсенные из текста.
// Отсутствующее поле означает "данных нет", а не "ноль".
type Hints struct {
	Price   string   `json:"price,omitempty"`
	Rating  string   `json:"rating,omitempty"`
	Orders  string   `json:"orders,omitempty"`
	Coupons []string `json:"coupons,omitempty"`
}

// RenderedPost — готовый к публикации пост.
type RenderedPost struct {
	Body          string
	AffiliateLink string
	ProductID     string
}

// SkipReason — код причины отклонения кандидата. Используется в логах
// для настройки фильтров оператором.
type SkipReason string

const (
	SkipStale            SkipReason = "stale"
	SkipNoLink           SkipReason = "no_link"
	SkipBlockedKeyword   SkipReason = "blocked_keyword"
	SkipNoAllowKeyword   SkipReason = "no_allow_keyword"
	SkipLowViews         SkipReason = "low_views"
	SkipDuplicate        SkipReason = "duplicate"
	SkipResolutionFailed SkipReason = "affiliate_resolution_failed"
	SkipPublishFailed    SkipReason = "publish_failed"
)

// RunState — состояние одного прогона. Живёт только в памяти процесса:
// между запусками ничего не сохраняется, кросс-ранновая дедупликация
// опирается на сканирование истории целевого канала.
type RunState struct {
	Published  int
	HandledIDs map[string]struct{}
	Skips      map[string]map[SkipReason]int
}

// NewRunState создаёт пустое состояние прогона.
func NewRunState() *RunState {
	return &RunState{
		HandledIDs: map[string]struct{}{},
		Skips:      map[string]map[SkipReason]int{},
	}
}

// MarkHandled запоминает идентификатор товара, обработанный в этом прогоне.
func (s *RunState) MarkHandled(productID string) {
	if productID == "" {
		return
	}
	s.HandledIDs[productID] = struct{}{}
}

// Handled сообщает, публиковался ли товар уже в этом прогоне.
func (s *RunState) Handled(productID string) bool {
	if productID == "" {
		return false
	}
	_, ok := s.HandledIDs[productID]
	return ok
}

// CountSkip увеличивает счётчик причины пропуска для канала.
func (s *RunState) CountSkip(channel string, reason SkipReason) {
	perChannel, ok := s.Skips[channel]
	if !ok {
		perChannel = map[SkipReason]int{}
		s.Skips[channel] = perChannel
	}
	perChannel[reason]++
}
