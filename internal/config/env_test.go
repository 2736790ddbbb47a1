package config

import (
	"reflect"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TG_SOURCE_CHANNELS", "channel_a, channel_b")
	t.Setenv("TG_TARGET_CHANNEL", "@my_deals")
	t.Setenv("TG_BOT_TOKEN", "token123")
}

func TestLoadEnvConfig_emptyChannelListIsFatal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unset", raw: ""},
		{name: "only comma", raw: ","},
		{name: "commas and spaces", raw: " , , "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TG_SOURCE_CHANNELS", tt.raw)
			t.Setenv("TG_TARGET_CHANNEL", "@my_deals")
			t.Setenv("TG_BOT_TOKEN", "token123")

			if _, err := LoadEnvConfig(); err == nil {
				t.Error("LoadEnvConfig() error = nil, want fatal config error")
			}
		})
	}
}

func TestLoadEnvConfig_defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("LoadEnvConfig() error = %v", err)
	}

	if !reflect.DeepEqual(cfg.SourceChannels, []string{"channel_a", "channel_b"}) {
		t.Errorf("SourceChannels = %v", cfg.SourceChannels)
	}
	if cfg.MaxMessagesPerChannel != 50 {
		t.Errorf("MaxMessagesPerChannel = %d, want 50", cfg.MaxMessagesPerChannel)
	}
	if cfg.MaxPostsPerRun != 10 {
		t.Errorf("MaxPostsPerRun = %d, want 10", cfg.MaxPostsPerRun)
	}
	if cfg.MaxMessageAge != 240*time.Minute {
		t.Errorf("MaxMessageAge = %v, want 240m", cfg.MaxMessageAge)
	}
	if cfg.PostCooldown != 2*time.Second {
		t.Errorf("PostCooldown = %v, want 2s", cfg.PostCooldown)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("GeminiModel = %q", cfg.GeminiModel)
	}
	if cfg.HistoryScanLimit != 200 {
		t.Errorf("HistoryScanLimit = %d, want 200", cfg.HistoryScanLimit)
	}
	if cfg.DryRun {
		t.Error("DryRun = true by default")
	}
}

func TestLoadEnvConfig_tokenRequiredUnlessDryRun(t *testing.T) {
	t.Setenv("TG_SOURCE_CHANNELS", "channel_a")
	t.Setenv("TG_TARGET_CHANNEL", "@my_deals")
	t.Setenv("TG_BOT_TOKEN", "")

	if _, err := LoadEnvConfig(); err == nil {
		t.Error("LoadEnvConfig() error = nil, want missing token error")
	}

	t.Setenv("DRY_RUN", "1")
	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("LoadEnvConfig() with DRY_RUN error = %v", err)
	}
	if !cfg.DryRun {
		t.Error("DryRun = false")
	}
}

func TestLoadEnvConfig_overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MIN_VIEWS", "1500")
	t.Setenv("MAX_MESSAGE_AGE_MINUTES", "60")
	t.Setenv("AFFILIATE_API_TIMEOUT_SECONDS", "5")
	t.Setenv("KEYWORDS_BLOCK", "казино, ставки")

	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("LoadEnvConfig() error = %v", err)
	}
	if cfg.MinViews != 1500 {
		t.Errorf("MinViews = %d, want 1500", cfg.MinViews)
	}
	if cfg.MaxMessageAge != time.Hour {
		t.Errorf("MaxMessageAge = %v, want 1h", cfg.MaxMessageAge)
	}
	if cfg.AffiliateAPITimeout != 5*time.Second {
		t.Errorf("AffiliateAPITimeout = %v, want 5s", cfg.AffiliateAPITimeout)
	}
	if !reflect.DeepEqual(cfg.KeywordsBlock, []string{"казино", "ставки"}) {
		t.Errorf("KeywordsBlock = %v", cfg.KeywordsBlock)
	}
}

func TestKeywords_Merge(t *testing.T) {
	fromFile := Keywords{
		Allow: []string{"скидка"},
		Block: []string{"казино"},
	}

	merged := fromFile.Merge(nil, []string{"18+"})
	if !reflect.DeepEqual(merged.Allow, []string{"скидка"}) {
		t.Errorf("Allow = %v, want file value kept", merged.Allow)
	}
	if !reflect.DeepEqual(merged.Block, []string{"18+"}) {
		t.Errorf("Block = %v, want env override", merged.Block)
	}
}
