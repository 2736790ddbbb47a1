package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvConfig содержит все переменные окружения бота.
type EnvConfig struct {
	TelegramBotToken string
	SourceChannels   []string
	TargetChannel    string

	GeminiAPIKey    string
	GeminiModel     string
	RewriteLanguage string

	AffiliateAPIEndpoint string
	AffiliateAPIToken    string
	AffiliateAPITimeout  time.Duration
	AffiliatePortalLink  string // шаблон с плейсхолдером {{url}} либо фиксированная личная ссылка
	AffiliateLinkPrefix  string

	MinViews              int
	MaxMessagesPerChannel int
	MaxPostsPerRun        int
	PostCooldown          time.Duration
	MaxMessageAge         time.Duration
	HistoryScanLimit      int

	KeywordsAllow []string
	KeywordsBlock []string

	DryRun bool
}

// LoadEnvConfig читает переменные окружения и возвращает конфигурацию.
// Возвращает ошибку на фатальных проблемах: пустой список каналов-источников
// или отсутствующие обязательные токены. Никакие сетевые вызовы к этому
// моменту ещё не сделаны.
func LoadEnvConfig() (*EnvConfig, error) {
	channels := splitList(os.Getenv("TG_SOURCE_CHANNELS"))
	if len(channels) == 0 {
		return nil, fmt.Errorf("TG_SOURCE_CHANNELS is empty: at least one source channel is required")
	}

	target := strings.TrimSpace(os.Getenv("TG_TARGET_CHANNEL"))
	if target == "" {
		return nil, fmt.Errorf("TG_TARGET_CHANNEL environment variable is required")
	}

	dryRun := os.Getenv("DRY_RUN") == "1"

	// Токен бота нужен только для реальной публикации
	tgToken := os.Getenv("TG_BOT_TOKEN")
	if tgToken == "" && !dryRun {
		return nil, fmt.Errorf("TG_BOT_TOKEN environment variable is required (or set DRY_RUN=1)")
	}

	// GEMINI_API_KEY опционален: без него рерайтер работает только на
	// детерминированном fallback-тексте (как и при ошибках генерации)
	geminiKey := os.Getenv("GEMINI_API_KEY")

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}

	language := os.Getenv("REWRITE_LANGUAGE")
	if language == "" {
		language = "русский"
	}

	return &EnvConfig{
		TelegramBotToken: tgToken,
		SourceChannels:   channels,
		TargetChannel:    target,

		GeminiAPIKey:    geminiKey,
		GeminiModel:     model,
		RewriteLanguage: language,

		AffiliateAPIEndpoint: os.Getenv("AFFILIATE_API_ENDPOINT"),
		AffiliateAPIToken:    os.Getenv("AFFILIATE_API_TOKEN"),
		AffiliateAPITimeout:  time.Duration(intEnv("AFFILIATE_API_TIMEOUT_SECONDS", 15)) * time.Second,
		AffiliatePortalLink:  os.Getenv("AFFILIATE_PORTAL_LINK"),
		AffiliateLinkPrefix:  os.Getenv("AFFILIATE_LINK_PREFIX"),

		MinViews:              intEnv("MIN_VIEWS", 0),
		MaxMessagesPerChannel: intEnv("MAX_MESSAGES_PER_CHANNEL", 50),
		MaxPostsPerRun:        intEnv("MAX_POSTS_PER_RUN", 10),
		PostCooldown:          time.Duration(intEnv("POST_COOLDOWN_SECONDS", 2)) * time.Second,
		MaxMessageAge:         time.Duration(intEnv("MAX_MESSAGE_AGE_MINUTES", 240)) * time.Minute,
		HistoryScanLimit:      intEnv("HISTORY_SCAN_LIMIT", 200),

		KeywordsAllow: splitList(os.Getenv("KEYWORDS_ALLOW")),
		KeywordsBlock: splitList(os.Getenv("KEYWORDS_BLOCK")),

		DryRun: dryRun,
	}, nil
}

// splitList разбирает список через запятую, отбрасывая пустые элементы.
// Строка вида "," превращается в пустой список.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intEnv(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
