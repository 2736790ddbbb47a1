package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const previewPage = `
<html><body>
<div class="tgme_widget_message" data-post="deals_channel/101">
  <div class="tgme_widget_message_text">
    Первый дил со скидкой
    <a href="https://s.click.aliexpress.com/e/_hidden1">Купить тут</a>
  </div>
  <span class="tgme_widget_message_views">1.2K</span>
  <a class="tgme_widget_message_date" href="#"><time datetime="2026-08-30T10:00:00+00:00"></time></a>
</div>
<div class="tgme_widget_message" data-post="deals_channel/102">
  <div class="tgme_widget_message_text">Второй дил https://aliexpress.com/item/5.html</div>
  <a class="tgme_widget_message_date" href="#"><time datetime="2026-08-30T11:00:00+00:00"></time></a>
</div>
</body></html>`

func TestPreviewFetcher_Recent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("before") != "" {
			// Более старых страниц нет
			w.Write([]byte("<html><body></body></html>"))
			return
		}
		w.Write([]byte(previewPage))
	}))
	defer srv.Close()

	f := NewPreviewFetcher(srv.Client())
	f.baseURL = srv.URL

	messages, err := f.Recent(context.Background(), "@deals_channel", 50)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Recent() returned %d messages, want 2", len(messages))
	}

	// Новые первыми
	if messages[0].ID != 102 || messages[1].ID != 101 {
		t.Errorf("messages out of order: %d, %d", messages[0].ID, messages[1].ID)
	}

	first := messages[1]
	if first.Views == nil || *first.Views != 1200 {
		t.Errorf("Views = %v, want 1200", first.Views)
	}
	if len(first.LinkHrefs) != 1 || first.LinkHrefs[0] != "https://s.click.aliexpress.com/e/_hidden1" {
		t.Errorf("LinkHrefs = %v, want anchor href", first.LinkHrefs)
	}
	if first.PostedAt.IsZero() {
		t.Error("PostedAt not parsed from datetime attribute")
	}

	second := messages[0]
	if second.Views != nil {
		t.Errorf("Views = %v, want nil for message without counter", second.Views)
	}
}

func TestPreviewFetcher_Recent_errorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewPreviewFetcher(srv.Client())
	f.baseURL = srv.URL

	if _, err := f.Recent(context.Background(), "missing", 10); err == nil {
		t.Error("Recent() error = nil, want preview status error")
	}
}

func TestParseAbbrevCount(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"456", 456, true},
		{"1.2K", 1200, true},
		{"1,2K", 1200, true},
		{"3.4M", 3400000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"12 345", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseAbbrevCount(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("parseAbbrevCount(%q) = %d, %v; want %d, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCombinedText(t *testing.T) {
	msg := Message{
		Text:      "Дил дня https://aliexpress.com/item/1.html",
		LinkHrefs: []string{"https://aliexpress.com/item/1.html", "https://s.click.aliexpress.com/e/_x1"},
	}

	got := CombinedText(msg)
	want := "Дил дня https://aliexpress.com/item/1.html\nhttps://s.click.aliexpress.com/e/_x1"
	if got != want {
		t.Errorf("CombinedText() = %q, want %q", got, want)
	}
}

func TestParseMessageID(t *testing.T) {
	if got := parseMessageID("channel/123"); got != 123 {
		t.Errorf("parseMessageID = %d, want 123", got)
	}
	if got := parseMessageID("garbage"); got != 0 {
		t.Errorf("parseMessageID(garbage) = %d, want 0", got)
	}
}
