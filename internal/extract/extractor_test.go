package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// failingTransport имитирует недоступную сеть для раскрытия редиректоров.
type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network down")
}

func offlineExtractor() *Extractor {
	return NewExtractor(&http.Client{Transport: failingTransport{}})
}

func TestExtractor_Links(t *testing.T) {
	e := offlineExtractor()
	ctx := context.Background()

	tests := []struct {
		name           string
		text           string
		wantCount      int
		wantNormalized string
		wantProductID  string
	}{
		{
			name:           "direct item url",
			text:           "Успей купить https://aliexpress.com/item/1005001234.html?spm=a2g0o",
			wantCount:      1,
			wantNormalized: "https://www.aliexpress.com/item/1005001234.html",
			wantProductID:  "1005001234",
		},
		{
			name:           "www and ru mirror",
			text:           "https://aliexpress.ru/something и https://www.aliexpress.com/item/42.html",
			wantCount:      1, // aliexpress.ru не целевой домен
			wantNormalized: "https://www.aliexpress.com/item/42.html",
			wantProductID:  "42",
		},
		{
			name:           "click redirector offline keeps token",
			text:           "Жми https://s.click.aliexpress.com/e/_mNVxq1",
			wantCount:      1,
			wantNormalized: "https://s.click.aliexpress.com/e/_mNVxq1",
			wantProductID:  "_mNVxq1",
		},
		{
			name:           "bitly offline keeps last segment",
			text:           "https://bit.ly/3xYzAbC вот",
			wantCount:      1,
			wantNormalized: "https://bit.ly/3xYzAbC",
			wantProductID:  "3xYzAbC",
		},
		{
			name:           "non product url stripped of params without id",
			text:           "https://www.aliexpress.com/store/12345?from=promo",
			wantCount:      1,
			wantNormalized: "https://www.aliexpress.com/store/12345",
			wantProductID:  "",
		},
		{
			name:      "unrelated urls ignored",
			text:      "Читай https://example.com/news и https://t.me/somechannel",
			wantCount: 0,
		},
		{
			name:      "no urls",
			text:      "Просто текст без ссылок",
			wantCount: 0,
		},
		{
			name:           "trailing punctuation trimmed",
			text:           "Товар тут: https://aliexpress.com/item/77.html!",
			wantCount:      1,
			wantNormalized: "https://www.aliexpress.com/item/77.html",
			wantProductID:  "77",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Links(ctx, tt.text)
			if len(got) != tt.wantCount {
				t.Fatalf("Links() count = %d, want %d (%v)", len(got), tt.wantCount, got)
			}
			if tt.wantCount == 0 {
				return
			}
			if got[0].Normalized != tt.wantNormalized {
				t.Errorf("Normalized = %q, want %q", got[0].Normalized, tt.wantNormalized)
			}
			if got[0].ProductID != tt.wantProductID {
				t.Errorf("ProductID = %q, want %q", got[0].ProductID, tt.wantProductID)
			}
		})
	}
}

func TestExtractor_expand_resolvesRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/e/_token1" {
			http.Redirect(w, r, "/item/1005009999.html", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := NewExtractor(srv.Client())
	link := e.expand(context.Background(), srv.URL+"/e/_token1")

	if link.Normalized != "https://www.aliexpress.com/item/1005009999.html" {
		t.Errorf("Normalized = %q, want canonical item url", link.Normalized)
	}
	if link.ProductID != "1005009999" {
		t.Errorf("ProductID = %q, want %q", link.ProductID, "1005009999")
	}
}

func TestExtractor_expand_failureKeepsShortForm(t *testing.T) {
	e := offlineExtractor()
	raw := "https://s.click.aliexpress.com/e/_abcd"

	link := e.expand(context.Background(), raw)

	if link.Normalized != raw {
		t.Errorf("Normalized = %q, want original short form %q", link.Normalized, raw)
	}
	if link.ProductID != "_abcd" {
		t.Errorf("ProductID = %q, want redirector token", link.ProductID)
	}
}

func TestExtractor_ordering(t *testing.T) {
	e := offlineExtractor()
	text := "Два товара: https://aliexpress.com/item/1.html и https://aliexpress.com/item/2.html"

	got := e.Links(context.Background(), text)
	if len(got) != 2 {
		t.Fatalf("Links() count = %d, want 2", len(got))
	}
	if got[0].ProductID != "1" || got[1].ProductID != "2" {
		t.Errorf("links out of order: %v", got)
	}
}
