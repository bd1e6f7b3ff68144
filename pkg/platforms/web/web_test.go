package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/platforms"
)

func TestSearchAPI(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		w.Write([]byte(`{"organic":[
			{"title":"Honest tracker review","link":"https://fitblog.de/review","snippet":"after 3 months"},
			{"title":"Tracker shop","link":"https://store.example.com/product/1","snippet":"buy now"},
			{"title":"no link here"}
		]}`))
	}))
	defer srv.Close()

	a := New("secret")
	a.APIURL = srv.URL

	results, err := a.Search(context.Background(), platforms.Query{Keyword: "fitness tracker", Country: "Germany"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("API key header not sent, got %q", gotKey)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results (linkless hit skipped), got %d", len(results))
	}
	if results[0].Domain != "fitblog.de" {
		t.Fatalf("registrable domain not extracted: %q", results[0].Domain)
	}
	if !results[0].IsEnriching {
		t.Fatal("fresh results must be flagged as enriching")
	}
}

func TestSearchLiteParsesHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="result">
				<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Ffitblog.de%2Freview">Honest review</a>
				<div class="result__snippet">My experience after a month</div>
			</div>
		</body></html>`))
	}))
	defer srv.Close()

	a := New("")
	a.LiteURL = srv.URL

	results, err := a.Search(context.Background(), platforms.Query{Keyword: "fitness tracker"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].URL != "https://fitblog.de/review" {
		t.Fatalf("redirect not unwrapped: %q", results[0].URL)
	}
	if results[0].Title != "Honest review" {
		t.Fatalf("got title %q", results[0].Title)
	}
}

func TestSearchRejectsEmptySanitizedKeyword(t *testing.T) {
	a := New("key")
	if _, err := a.Search(context.Background(), platforms.Query{Keyword: `"<>"`}); err == nil {
		t.Fatal("expected error for keyword that sanitizes to nothing")
	}
}
