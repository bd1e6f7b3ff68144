package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/platforms"
)

func TestSearchAttachesChannelStatsInOneCall(t *testing.T) {
	channelCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/search"):
			w.Write([]byte(`{"items":[
				{"id":{"videoId":"v1"},"snippet":{"title":"Tracker review","description":"honest take","channelId":"c1","channelTitle":"Anna Fit"}},
				{"id":{"videoId":"v2"},"snippet":{"title":"Another video","description":"more","channelId":"c1","channelTitle":"Anna Fit"}},
				{"id":{"videoId":"v3"},"snippet":{"title":"Third","description":"x","channelId":"c2","channelTitle":"Gear Guy"}}
			]}`))
		case strings.HasPrefix(r.URL.Path, "/channels"):
			channelCalls++
			ids := r.URL.Query().Get("id")
			if ids != "c1,c2" {
				t.Errorf("expected batched channel ids c1,c2, got %q", ids)
			}
			w.Write([]byte(`{"items":[
				{"id":"c1","snippet":{"description":"Fitness creator, collabs: anna@fit.example"},"statistics":{"subscriberCount":"120000","videoCount":"240"}},
				{"id":"c2","snippet":{"description":"Gadgets"},"statistics":{"subscriberCount":"5000","videoCount":"80"}}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := New("key")
	a.APIURL = srv.URL

	results, err := a.Search(context.Background(), platforms.Query{Keyword: "fitness tracker", Language: "German"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if channelCalls != 1 {
		t.Fatalf("expected exactly one batched channel call, got %d", channelCalls)
	}
	if results[0].Profile.Subscribers != 120000 {
		t.Fatalf("subscriber count not attached: %d", results[0].Profile.Subscribers)
	}
	if results[0].Email != "anna@fit.example" {
		t.Fatalf("bio email not extracted: %q", results[0].Email)
	}
	if results[2].Profile.Subscribers != 5000 {
		t.Fatalf("second channel stats not attached: %d", results[2].Profile.Subscribers)
	}
}
