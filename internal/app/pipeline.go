package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/maine/ali_deals_bot/internal/deals"
)

// ErrNotConfigured возвращается, когда пайплайн запущен без обязательных зависимостей.
var ErrNotConfigured = errors.New("pipeline dependencies not configured")

// ErrNoSourceChannels возвращается при пустом списке каналов-источников.
// Это фатальная ошибка конфигурации: прогон прерывается до первого
// обращения к внешним сервисам.
var ErrNoSourceChannels = errors.New("source channel list is empty")

// Clock определяет источник времени (удобно подменять в тестах).
type Clock func() time.Time

// Sleep приостанавливает прогон (кулдаун между публикациями);
// в тестах подменяется на no-op.
type Sleep func(ctx context.Context, d time.Duration) error

// Fetcher отдаёт последние сообщения канала-источника, новые первыми.
// Links и Hints кандидатов на этом этапе ещё пустые.
type Fetcher interface {
	Recent(ctx context.Context, channel string, limit int) ([]deals.Candidate, error)
}

// Extractor распознаёт товарные ссылки и структурированные подсказки.
type Extractor interface {
	Links(ctx context.Context, text string) []deals.ExtractedLink
	Hints(text string) deals.Hints
}

// Classifier решает, является ли кандидат дилом.
type Classifier interface {
	Classify(cand deals.Candidate) (bool, deals.SkipReason)
}

// Resolver превращает товарную ссылку в партнёрскую.
type Resolver interface {
	Resolve(ctx context.Context, productURL string) (string, error)
}

// Rewriter готовит текст поста. Ошибок не возвращает: генерация всегда
// деградирует до fallback-текста.
type Rewriter interface {
	Render(ctx context.Context, cand deals.Candidate, affiliateLink string) string
}

// Guard отвечает за подавление дублей.
type Guard interface {
	Eligible(productID string, run *deals.RunState) bool
	Stamp(body, productID string) string
}

// Publisher публикует готовый пост в целевой канал.
type Publisher interface {
	Publish(ctx context.Context, body string) error
}

// Options — параметры прогона.
type Options struct {
	SourceChannels        []string
	TargetChannel         string
	MaxMessagesPerChannel int
	MaxPostsPerRun        int
	Cooldown              time.Duration
	DryRun                bool
}

// Deps перечисляет зависимости пайплайна.
type Deps struct {
	Fetcher    Fetcher
	Extractor  Extractor
	Classifier Classifier
	Resolver   Resolver
	Rewriter   Rewriter
	Guard      Guard
	Publisher  Publisher
	Clock      Clock
	Sleep      Sleep
	Options    Options
}

// Pipeline — однопроходный контроллер: каналы сканируются последовательно,
// кандидаты оцениваются по одному, все сетевые вызовы синхронные.
type Pipeline struct {
	fetcher    Fetcher
	extractor  Extractor
	classifier Classifier
	resolver   Resolver
	rewriter   Rewriter
	guard      Guard
	publisher  Publisher
	clock      Clock
	sleep      Sleep
	opts       Options
}

// NewPipeline создаёт новый экземпляр пайплайна.
func NewPipeline(deps Deps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	return &Pipeline{
		fetcher:    deps.Fetcher,
		extractor:  deps.Extractor,
		classifier: deps.Classifier,
		resolver:   deps.Resolver,
		rewriter:   deps.Rewriter,
		guard:      deps.Guard,
		publisher:  deps.Publisher,
		clock:      clock,
		sleep:      sleep,
		opts:       deps.Options,
	}
}

// Run исполняет один полный проход по каналам-источникам.
// Единственная фатальная категория ошибок — конфигурационная; любой сбой
// на уровне кандидата деградирует до пропуска с причиной в логе.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.validateDeps(); err != nil {
		return err
	}
	if len(p.opts.SourceChannels) == 0 {
		return ErrNoSourceChannels
	}

	p.logPreflight()
	start := p.clock()
	run := deals.NewRunState()

scan:
	for _, channel := range p.opts.SourceChannels {
		if run.Published >= p.opts.MaxPostsPerRun {
			break
		}

		log.Printf("Scanning channel %s...", channel)
		candidates, err := p.fetcher.Recent(ctx, channel, p.opts.MaxMessagesPerChannel)
		if err != nil {
			// Недоступный источник не должен останавливать проход
			log.Printf("Failed to fetch channel %s: %v", channel, err)
			continue
		}
		log.Printf("Channel %s: %d candidates", channel, len(candidates))

		for _, cand := range candidates {
			if run.Published >= p.opts.MaxPostsPerRun {
				log.Printf("Reached max posts per run (%d), stopping", p.opts.MaxPostsPerRun)
				break scan
			}

			published := p.process(ctx, cand, run)
			if published && p.opts.Cooldown > 0 {
				if err := p.sleep(ctx, p.opts.Cooldown); err != nil {
					return err
				}
			}
		}
	}

	p.logSummary(run, p.clock().Sub(start))
	return nil
}

// process проводит одного кандидата через весь пайплайн.
// Возвращает true, если пост был опубликован (или засчитан в dry-run).
func (p *Pipeline) process(ctx context.Context, cand deals.Candidate, run *deals.RunState) bool {
	cand.Links = p.extractor.Links(ctx, cand.Text)
	cand.Hints = p.extractor.Hints(cand.Text)

	ok, reason := p.classifier.Classify(cand)
	if !ok {
		run.CountSkip(cand.Channel, reason)
		return false
	}

	link := cand.Links[0]

	// Дубли отсекаем до обращения к партнёрскому API и генерации текста
	if !p.guard.Eligible(link.ProductID, run) {
		run.CountSkip(cand.Channel, deals.SkipDuplicate)
		return false
	}

	affiliateLink, err := p.resolver.Resolve(ctx, link.Normalized)
	if err != nil {
		log.Printf("Affiliate resolution failed for %s: %v", link.Normalized, err)
		run.CountSkip(cand.Channel, deals.SkipResolutionFailed)
		return false
	}

	body := p.rewriter.Render(ctx, cand, affiliateLink)
	body = p.guard.Stamp(body, link.ProductID)

	if p.opts.DryRun {
		log.Printf("[dry-run] would publish to %s (product %s):\n%s", p.opts.TargetChannel, link.ProductID, body)
	} else {
		if err := p.publisher.Publish(ctx, body); err != nil {
			log.Printf("Publish failed for product %s: %v", link.ProductID, err)
			run.CountSkip(cand.Channel, deals.SkipPublishFailed)
			return false
		}
		log.Printf("Published product %s from %s (message %s)", link.ProductID, cand.Channel, cand.MessageID)
	}

	run.MarkHandled(link.ProductID)
	run.Published++
	return true
}

func (p *Pipeline) validateDeps() error {
	switch {
	case p.fetcher == nil,
		p.extractor == nil,
		p.classifier == nil,
		p.resolver == nil,
		p.rewriter == nil,
		p.guard == nil,
		p.publisher == nil,
		p.clock == nil:
		return ErrNotConfigured
	default:
		return nil
	}
}

func (p *Pipeline) logPreflight() {
	mode := "live"
	if p.opts.DryRun {
		mode = "dry-run"
	}
	log.Printf("Run config: %d source channels, target %s, max %d msg/channel, max %d posts/run, cooldown %s, mode %s",
		len(p.opts.SourceChannels), p.opts.TargetChannel, p.opts.MaxMessagesPerChannel,
		p.opts.MaxPostsPerRun, p.opts.Cooldown, mode)
}

func (p *Pipeline) logSummary(run *deals.RunState, elapsed time.Duration) {
	total := map[deals.SkipReason]int{}
	for channel, perChannel := range run.Skips {
		for reason, count := range perChannel {
			total[reason] += count
			log.Printf("Skips for %s: %s=%d", channel, reason, count)
		}
	}
	log.Printf("Run finished in %s: published %d, skipped %s", elapsed.Round(time.Second), run.Published, formatTally(total))
}

func formatTally(tally map[deals.SkipReason]int) string {
	if len(tally) == 0 {
		return "none"
	}
	out := ""
	for _, reason := range []deals.SkipReason{
		deals.SkipStale, deals.SkipNoLink, deals.SkipBlockedKeyword,
		deals.SkipNoAllowKeyword, deals.SkipLowViews, deals.SkipDuplicate,
		deals.SkipResolutionFailed, deals.SkipPublishFailed,
	} {
		if count, ok := tally[reason]; ok {
			if out != "" {
				out += " "
			}
			out += fmt.Sprintf("%s=%d", reason, count)
		}
	}
	return out
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
