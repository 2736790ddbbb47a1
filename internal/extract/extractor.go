package extract

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/maine/ali_deals_bot/internal/deals"
)

var (
	urlPattern  = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)
	itemPattern = regexp.MustCompile(`/item/(\d+)\.html`)
	// Опознаваемый токен s.click-редиректора: /e/_mXXXX
	clickTokenPattern = regexp.MustCompile(`/e/([A-Za-z0-9_-]{4,})`)
)

// redirectorHosts — известные сокращатели и редиректоры, через которые
// каналы публикуют товарные ссылки.
var redirectorHosts = map[string]struct{}{
	"s.click.aliexpress.com": {},
	"a.aliexpress.com":       {},
	"bit.ly":                 {},
	"tinyurl.com":            {},
	"goo.gl":                 {},
	"t.ly":                   {},
	"clck.ru":                {},
}

// Extractor распознаёт товарные ссылки AliExpress в свободном тексте.
type Extractor struct {
	client *http.Client
}

// NewExtractor создаёт экстрактор. client используется для раскрытия
// редиректоров; nil означает клиент с дефолтным таймаутом.
func NewExtractor(client *http.Client) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Extractor{client: client}
}

// Links возвращает упорядоченный список распознанных ссылок.
// Ссылки, не относящиеся к AliExpress (ни напрямую, ни через редиректор),
// отбрасываются. ProductID никогда не выдумывается: пустое значение —
// легитимный результат.
func (e *Extractor) Links(ctx context.Context, text string) []deals.ExtractedLink {
	var out []deals.ExtractedLink
	for _, raw := range urlPattern.FindAllString(text, -1) {
		raw = strings.TrimRight(raw, ".,;:!?)»")

		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}

		host := strings.ToLower(u.Hostname())
		switch {
		case isProductHost(host):
			normalized, pid := canonicalize(raw)
			out = append(out, deals.ExtractedLink{Original: raw, Normalized: normalized, ProductID: pid})
		case isRedirectorHost(host):
			out = append(out, e.expand(ctx, raw))
		}
	}
	return out
}

// expand пытается раскрыть редиректор до канонической товарной ссылки.
// При любой ошибке сохраняет исходную короткую форму; идентификатором тогда
// служит непрозрачный токен редиректора, если он есть.
func (e *Extractor) expand(ctx context.Context, raw string) deals.ExtractedLink {
	link := deals.ExtractedLink{Original: raw, Normalized: raw, ProductID: redirectorToken(raw)}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, raw, nil)
	if err != nil {
		return link
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return link
	}
	resp.Body.Close()

	final := resp.Request.URL.String()
	if m := itemPattern.FindStringSubmatch(final); m != nil {
		link.Normalized = "https://www.aliexpress.com/item/" + m[1] + ".html"
		link.ProductID = m[1]
		return link
	}

	// Редиректор раскрылся, но ID товара в цели нет: чистим параметры,
	// дедупликация для такой ссылки недоступна
	if u, err := url.Parse(final); err == nil && isProductHost(strings.ToLower(u.Hostname())) {
		u.RawQuery = ""
		u.Fragment = ""
		link.Normalized = u.String()
		link.ProductID = ""
	}
	return link
}

// canonicalize приводит прямую ссылку AliExpress к канонической форме.
func canonicalize(raw string) (normalized, productID string) {
	if m := itemPattern.FindStringSubmatch(raw); m != nil {
		return "https://www.aliexpress.com/item/" + m[1] + ".html", m[1]
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw, ""
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), ""
}

// redirectorToken извлекает стабильный токен из короткой ссылки.
func redirectorToken(raw string) string {
	if m := clickTokenPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if len(last) >= 4 {
		return last
	}
	return ""
}

func isProductHost(host string) bool {
	if isRedirectorHost(host) {
		return false
	}
	return host == "aliexpress.com" || strings.HasSuffix(host, ".aliexpress.com")
}

func isRedirectorHost(host string) bool {
	_, ok := redirectorHosts[host]
	return ok
}
