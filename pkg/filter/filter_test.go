package filter

import (
	"testing"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
)

func webResult(title, url, snippet string) candidate.Result {
	return candidate.Result{
		Title:    title,
		URL:      url,
		Snippet:  snippet,
		Platform: candidate.PlatformWeb,
		Domain:   candidate.RegistrableDomain(url),
	}
}

func TestBlocklistRejectsExactDomain(t *testing.T) {
	r := webResult("Any title at all", "https://www.amazon.com/dp/B0TRACKER", "Buy it here")
	d := EvaluateWeb(r, Options{})
	if d.Pass {
		t.Fatal("amazon.com must be rejected regardless of title")
	}
	if d.Reason != ReasonBlockedDomain {
		t.Fatalf("expected %s, got %s", ReasonBlockedDomain, d.Reason)
	}
}

func TestBrandDomainRejected(t *testing.T) {
	r := webResult("Our products", "https://mybrand.com/about", "company site")
	d := EvaluateWeb(r, Options{BrandDomain: "mybrand.com"})
	if d.Pass {
		t.Fatal("the requester's own brand domain must be rejected")
	}
}

func TestShopURLRejectedWithoutCreatorSignal(t *testing.T) {
	r := webResult("Fitness Tracker XL", "https://gadgetstore.io/product/123", "Great gadget for your wrist")
	d := EvaluateWeb(r, Options{})
	if d.Pass {
		t.Fatal("shop-pattern URL without creator signal must be rejected")
	}
	if d.Reason != ReasonShopURL {
		t.Fatalf("expected %s, got %s", ReasonShopURL, d.Reason)
	}
}

func TestShopURLKeptWithCreatorSignal(t *testing.T) {
	r := webResult("Fitness Tracker XL", "https://gadgetstore.io/product/123", "My honest review after 3 months")
	d := EvaluateWeb(r, Options{})
	if !d.Pass {
		t.Fatalf("creator signal must override shop URL pattern, got reason %s", d.Reason)
	}
}

func TestTwoShopPhrasesRejected(t *testing.T) {
	r := webResult("Fitness Tracker - Buy Now", "https://somestore.io/fitness-tracker", "Free shipping on all orders, buy now while in stock")
	d := EvaluateWeb(r, Options{})
	if d.Pass {
		t.Fatal("two distinct shop phrases without a creator signal must reject")
	}
	if d.Reason != ReasonShopContent {
		t.Fatalf("expected %s, got %s", ReasonShopContent, d.Reason)
	}
}

func TestCountryTLDFilter(t *testing.T) {
	opts := Options{Country: "Germany"}

	rejected := webResult("Avis sur le bracelet connecté, mon test complet", "https://montracker.fr/avis", "")
	if d := EvaluateWeb(rejected, opts); d.Pass {
		t.Fatal(".fr must be rejected for Germany")
	}

	for _, u := range []string{
		"https://fitnessblog.de/erfahrung",
		"https://trackertest.at/review",
		"https://sportblog.ch/review",
		"https://gadgetreview.com/review",
	} {
		r := webResult("Mein Erfahrungsbericht zum Fitness Tracker", u, "")
		if d := EvaluateWeb(r, opts); !d.Pass {
			t.Fatalf("%s must be kept for Germany, got reason %s", u, d.Reason)
		}
	}
}

func TestShortTextSkipsLanguageFilter(t *testing.T) {
	r := webResult("Kurz", "https://shortblog.com/x", "")
	d := EvaluateWeb(r, Options{Language: "German"})
	if !d.Pass {
		t.Fatalf("short text must skip language detection, got reason %s", d.Reason)
	}
}

func TestLanguageMismatchRejected(t *testing.T) {
	r := webResult(
		"The ten best fitness trackers we tried this year",
		"https://fitgearblog.com/best-trackers",
		"We spent three months comparing battery life, accuracy and comfort across every major wearable brand.",
	)
	d := EvaluateWeb(r, Options{Language: "German"})
	if d.Pass {
		t.Fatal("clearly English text must be rejected when target language is German")
	}
	if d.Reason != ReasonWrongLanguage {
		t.Fatalf("expected %s, got %s", ReasonWrongLanguage, d.Reason)
	}
}

func TestApplyWebRanksCreatorSignalsFirstStable(t *testing.T) {
	in := []candidate.Result{
		webResult("Plain article one", "https://a.example.org/1", "some text about trackers"),
		webResult("My honest review", "https://b.example.org/2", "tried it for a month"),
		webResult("Plain article two", "https://c.example.org/3", "more text about trackers"),
		webResult("Affiliate program details", "https://d.example.org/4", "join as a partner"),
	}
	out := ApplyWeb(in, Options{})
	if len(out) != 4 {
		t.Fatalf("expected all 4 to survive, got %d", len(out))
	}
	wantOrder := []string{
		"https://b.example.org/2",
		"https://d.example.org/4",
		"https://a.example.org/1",
		"https://c.example.org/3",
	}
	for i, w := range wantOrder {
		if out[i].URL != w {
			t.Fatalf("position %d: got %s, want %s", i, out[i].URL, w)
		}
	}
}

func TestSocialRejectsGhostHits(t *testing.T) {
	r := candidate.Result{
		Title:    "fitgirl_anna",
		URL:      "https://instagram.com/fitgirl_anna",
		Platform: candidate.PlatformInstagram,
	}
	d := EvaluateSocial(r, Options{})
	if d.Pass {
		t.Fatal("profile-less social hit must be rejected")
	}
	if d.Reason != ReasonNoProfile {
		t.Fatalf("expected %s, got %s", ReasonNoProfile, d.Reason)
	}
}

func TestSocialRejectsBrandAccounts(t *testing.T) {
	opts := Options{BrandDomain: "acmefit.com", CompetitorDomains: []string{"rivalgear.io"}}

	own := candidate.Result{
		Title:    "AcmeFit Official",
		URL:      "https://instagram.com/acmefit_official",
		Platform: candidate.PlatformInstagram,
		Profile:  &candidate.Profile{Handle: "acmefit_official", DisplayName: "AcmeFit"},
	}
	if d := EvaluateSocial(own, opts); d.Pass {
		t.Fatal("brand's own account must be rejected")
	}

	competitor := candidate.Result{
		Title:    "Rival Gear",
		URL:      "https://instagram.com/rivalgear",
		Platform: candidate.PlatformInstagram,
		Profile:  &candidate.Profile{Handle: "rivalgear", DisplayName: "Rival Gear"},
	}
	if d := EvaluateSocial(competitor, opts); d.Pass {
		t.Fatal("competitor account must be rejected")
	}

	creator := candidate.Result{
		Title:    "Anna's fitness journey",
		URL:      "https://instagram.com/fitgirl_anna",
		Platform: candidate.PlatformInstagram,
		Profile:  &candidate.Profile{Handle: "fitgirl_anna", DisplayName: "Anna"},
	}
	if d := EvaluateSocial(creator, opts); !d.Pass {
		t.Fatalf("unrelated creator must pass, got reason %s", d.Reason)
	}
}
