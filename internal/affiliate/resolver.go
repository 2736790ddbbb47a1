package affiliate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// placeholder — токен подстановки в шаблоне партнёрской ссылки.
const placeholder = "{{url}}"

// ErrNoStrategies возвращается, когда партнёрская программа не настроена
// вообще: ни API, ни шаблона, ни префикса.
var ErrNoStrategies = errors.New("no affiliate strategies configured")

// ErrResolutionFailed возвращается, когда все настроенные стратегии
// завершились мягкой ошибкой.
var ErrResolutionFailed = errors.New("all affiliate strategies failed")

// Strategy — одна стратегия монетизации ссылки. Ошибка Attempt всегда
// мягкая: резолвер переходит к следующей стратегии, никогда не роняя прогон.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, productURL string) (string, error)
}

// Resolver перебирает стратегии в фиксированном порядке приоритета:
// API → шаблон → префикс. Первый успех выигрывает.
type Resolver struct {
	strategies []Strategy
}

// Config — параметры сборки резолвера.
type Config struct {
	APIEndpoint string
	APIToken    string
	APITimeout  time.Duration
	PortalLink  string
	LinkPrefix  string
	HTTPClient  *http.Client
}

// NewResolver собирает резолвер из настроенных стратегий.
func NewResolver(cfg Config) *Resolver {
	var strategies []Strategy

	if cfg.APIEndpoint != "" {
		client := cfg.HTTPClient
		if client == nil {
			timeout := cfg.APITimeout
			if timeout <= 0 {
				timeout = 15 * time.Second
			}
			client = &http.Client{Timeout: timeout}
		}
		strategies = append(strategies, &apiStrategy{
			endpoint: cfg.APIEndpoint,
			token:    cfg.APIToken,
			client:   client,
		})
	}

	if cfg.PortalLink != "" {
		strategies = append(strategies, templateStrategy{template: cfg.PortalLink})
	}

	if cfg.LinkPrefix != "" {
		strategies = append(strategies, prefixStrategy{prefix: cfg.LinkPrefix})
	}

	return &Resolver{strategies: strategies}
}

// Resolve превращает товарную ссылку в партнёрскую. Пост с оригинальной,
// немонетизированной ссылкой не публикуется никогда: при полном провале
// кандидат пропускается на уровне пайплайна.
func (r *Resolver) Resolve(ctx context.Context, productURL string) (string, error) {
	if len(r.strategies) == 0 {
		return "", ErrNoStrategies
	}

	for _, s := range r.strategies {
		link, err := s.Attempt(ctx, productURL)
		if err != nil {
			log.Printf("affiliate strategy %s failed: %v", s.Name(), err)
			continue
		}
		return link, nil
	}

	return "", ErrResolutionFailed
}

// apiStrategy обращается к внешнему API генерации партнёрских ссылок.
type apiStrategy struct {
	endpoint string
	token    string
	client   *http.Client
}

func (s *apiStrategy) Name() string { return "api" }

// Attempt шлёт POST {"url": ...} и принимает ссылку из одного из двух
// распознаваемых полей ответа. Любая сетевая ошибка, не-2xx статус или
// пустое поле — мягкая ошибка.
func (s *apiStrategy) Attempt(ctx context.Context, productURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"url": productURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("affiliate api status %d", resp.StatusCode)
	}

	var body struct {
		AffiliateURL  string `json:"affiliate_url"`
		PromotionLink string `json:"promotion_link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode affiliate response: %w", err)
	}

	link := strings.TrimSpace(body.AffiliateURL)
	if link == "" {
		link = strings.TrimSpace(body.PromotionLink)
	}
	if link == "" {
		return "", errors.New("affiliate response without link field")
	}
	return link, nil
}

// templateStrategy подставляет закодированную товарную ссылку в шаблон.
// Шаблон без плейсхолдера используется как есть — режим фиксированной
// личной ссылки партнёрского кабинета.
type templateStrategy struct {
	template string
}

func (s templateStrategy) Name() string { return "template" }

func (s templateStrategy) Attempt(_ context.Context, productURL string) (string, error) {
	if !strings.Contains(s.template, placeholder) {
		return s.template, nil
	}
	return strings.ReplaceAll(s.template, placeholder, url.QueryEscape(productURL)), nil
}

// prefixStrategy приклеивает закодированную товарную ссылку к префиксу.
type prefixStrategy struct {
	prefix string
}

func (s prefixStrategy) Name() string { return "prefix" }

func (s prefixStrategy) Attempt(_ context.Context, productURL string) (string, error) {
	return s.prefix + url.QueryEscape(productURL), nil
}
