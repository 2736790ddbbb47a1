package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/maine/ali_deals_bot/internal/affiliate"
	"github.com/maine/ali_deals_bot/internal/app"
	"github.com/maine/ali_deals_bot/internal/classify"
	"github.com/maine/ali_deals_bot/internal/config"
	"github.com/maine/ali_deals_bot/internal/dedupe"
	"github.com/maine/ali_deals_bot/internal/extract"
	"github.com/maine/ali_deals_bot/internal/gemini"
	"github.com/maine/ali_deals_bot/internal/rewrite"
	"github.com/maine/ali_deals_bot/internal/telegram"
)

const keywordsPath = "configs/keywords.yaml"

func main() {
	ctx := context.Background()

	// Локальный .env, в CI переменные приходят из окружения
	_ = godotenv.Load()

	envCfg, err := config.LoadEnvConfig()
	if err != nil {
		log.Fatalf("load env config: %v", err)
	}

	keywords, err := config.LoadKeywords(keywordsPath)
	if err != nil {
		log.Fatalf("load keywords config: %v", err)
	}
	keywords = keywords.Merge(envCfg.KeywordsAllow, envCfg.KeywordsBlock)

	httpClient := &http.Client{Timeout: 15 * time.Second}

	extractor := extract.NewExtractor(httpClient)

	classifier := classify.New(classify.Options{
		MaxAge:   envCfg.MaxMessageAge,
		MinViews: envCfg.MinViews,
		Allow:    keywords.Allow,
		Block:    keywords.Block,
	})

	resolver := affiliate.NewResolver(affiliate.Config{
		APIEndpoint: envCfg.AffiliateAPIEndpoint,
		APIToken:    envCfg.AffiliateAPIToken,
		APITimeout:  envCfg.AffiliateAPITimeout,
		PortalLink:  envCfg.AffiliatePortalLink,
		LinkPrefix:  envCfg.AffiliateLinkPrefix,
	})

	// Без ключа Gemini рерайтер работает на детерминированном fallback-тексте
	var geminiClient gemini.GeminiClient
	if envCfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, envCfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("create gemini client: %v", err)
		}
		geminiClient = client
	} else {
		log.Println("GEMINI_API_KEY is not set, rewriter will use fallback captions only")
	}
	rewriter := rewrite.NewRewriter(geminiClient, envCfg.GeminiModel, envCfg.RewriteLanguage)

	preview := telegram.NewPreviewFetcher(httpClient)
	fetcher := telegram.NewSourceFetcher(preview)

	// Кросс-ранновая дедупликация: сканируем недавнюю историю целевого
	// канала на теги. Сбой сканирования мягкий - прогон продолжается с
	// пустой историей, возможен повторный пост
	guard := loadGuard(ctx, preview, envCfg.TargetChannel, envCfg.HistoryScanLimit)

	tgClient := telegram.NewClient(envCfg.TelegramBotToken)
	publisher := telegram.NewChannelPublisher(tgClient, envCfg.TargetChannel)

	p := app.NewPipeline(app.Deps{
		Fetcher:    fetcher,
		Extractor:  extractor,
		Classifier: classifier,
		Resolver:   resolver,
		Rewriter:   rewriter,
		Guard:      guard,
		Publisher:  publisher,
		Options: app.Options{
			SourceChannels:        envCfg.SourceChannels,
			TargetChannel:         envCfg.TargetChannel,
			MaxMessagesPerChannel: envCfg.MaxMessagesPerChannel,
			MaxPostsPerRun:        envCfg.MaxPostsPerRun,
			Cooldown:              envCfg.PostCooldown,
			DryRun:                envCfg.DryRun,
		},
	})

	if err := p.Run(ctx); err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}

	log.Println("pipeline completed successfully")
}

// loadGuard строит гард дублей по истории целевого канала.
func loadGuard(ctx context.Context, preview *telegram.PreviewFetcher, target string, limit int) *dedupe.Guard {
	messages, err := preview.Recent(ctx, target, limit)
	if err != nil {
		log.Printf("Failed to scan target channel history, duplicates across runs are possible: %v", err)
		return dedupe.NewGuard(nil)
	}

	texts := make([]string, 0, len(messages))
	for _, msg := range messages {
		texts = append(texts, telegram.CombinedText(msg))
	}

	guard := dedupe.NewGuard(texts)
	log.Printf("Target history scanned: %d messages, %d known product ids", len(messages), guard.KnownIDs())
	return guard
}
