// Package filter is the pure classification pipeline that turns raw provider
// hits into qualified candidates. It performs no I/O: every check is a
// function of the result itself plus the request options.
package filter

import (
	"sort"
	"strings"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
)

// Reason codes for rejected results.
const (
	ReasonPass          = "pass"
	ReasonBlockedDomain = "blocked_domain"
	ReasonShopURL       = "shop_url"
	ReasonShopContent   = "shop_content"
	ReasonWrongTLD      = "wrong_tld"
	ReasonWrongLanguage = "wrong_language"
	ReasonNoProfile     = "no_profile"
	ReasonBrandMatch    = "brand_match"
)

// Decision is the outcome of evaluating one result. Not persisted; it exists
// so each pipeline stage is independently testable.
type Decision struct {
	Pass   bool
	Reason string
}

func pass() Decision                { return Decision{Pass: true, Reason: ReasonPass} }
func reject(reason string) Decision { return Decision{Pass: false, Reason: reason} }

// Options carries the request-derived knobs for a pipeline run.
type Options struct {
	Country           string
	Language          string
	BrandDomain       string
	CompetitorDomains []string
	ExtraExclusions   []string
}

// blockedDomains are registrable domains that are never affiliate candidates:
// marketplaces, large publishers, and the social platforms themselves.
var blockedDomains = map[string]bool{
	"amazon.com": true, "amazon.de": true, "amazon.co.uk": true, "amazon.fr": true,
	"ebay.com": true, "ebay.de": true, "etsy.com": true, "walmart.com": true,
	"aliexpress.com": true, "alibaba.com": true, "temu.com": true, "shein.com": true,
	"target.com": true, "bestbuy.com": true, "otto.de": true, "zalando.de": true,
	"idealo.de": true, "billiger.de": true, "check24.de": true,
	"wikipedia.org": true, "nytimes.com": true, "forbes.com": true, "cnn.com": true,
	"bbc.com": true, "bbc.co.uk": true, "theguardian.com": true, "washingtonpost.com": true,
	"businessinsider.com": true, "bild.de": true, "spiegel.de": true, "focus.de": true,
	"chip.de": true, "computerbild.de": true,
	"facebook.com": true, "instagram.com": true, "youtube.com": true, "tiktok.com": true,
	"pinterest.com": true, "twitter.com": true, "x.com": true, "linkedin.com": true,
	"reddit.com": true, "quora.com": true, "medium.com": true, "tumblr.com": true,
	"google.com": true, "bing.com": true, "yahoo.com": true,
}

// shopPathPatterns mark URL paths that look like store pages rather than
// content pages.
var shopPathPatterns = []string{
	"/product/", "/products/", "/shop/", "/store/", "/cart", "/checkout",
	"/collections/", "/category/", "/categories/", "/item/", "/sku/",
	"/add-to-cart", "/buy/",
}

// shopContentPhrases are store-page wording in titles/snippets.
var shopContentPhrases = []string{
	"add to cart", "free shipping", "buy now", "in stock", "out of stock",
	"shop now", "best price", "official store", "fast delivery", "money back guarantee",
}

// creatorSignals are phrases that indicate creator or partnership content;
// their presence overrides shop-shaped URLs and ranks survivors first.
var creatorSignals = []string{
	"review", "honest review", "tested", "unboxing", "affiliate", "ambassador",
	"partner program", "collab", "collaboration", "influencer", "creator",
	"blogger", "vlog", "my experience", "erfahrung", "erfahrungen",
	"vergleich", "comparison",
}

// countryTLDs maps a normalized country name to its acceptable country-code
// suffixes. Generic international suffixes are always acceptable.
var countryTLDs = map[string][]string{
	"germany":        {".de", ".at", ".ch"},
	"austria":        {".at", ".de", ".ch"},
	"switzerland":    {".ch", ".de", ".at", ".fr", ".it"},
	"france":         {".fr", ".be", ".ch"},
	"netherlands":    {".nl", ".be"},
	"belgium":        {".be", ".nl", ".fr"},
	"united kingdom": {".uk", ".co.uk"},
	"uk":             {".uk", ".co.uk"},
	"united states":  {".us"},
	"usa":            {".us"},
	"spain":          {".es"},
	"italy":          {".it"},
	"sweden":         {".se"},
	"denmark":        {".dk"},
	"norway":         {".no"},
	"finland":        {".fi"},
	"poland":         {".pl"},
}

var genericTLDs = []string{
	".com", ".net", ".org", ".io", ".co", ".me", ".tv", ".blog", ".info",
	".online", ".site", ".app", ".dev",
}

// EvaluateWeb runs the web branch checks on a single result.
func EvaluateWeb(r candidate.Result, opts Options) Decision {
	domain := r.Domain
	if domain == "" {
		domain = candidate.RegistrableDomain(r.URL)
	}

	if isBlockedDomain(domain, opts) {
		return reject(ReasonBlockedDomain)
	}

	text := strings.ToLower(r.Title + " " + r.Snippet)
	hasCreator := containsAny(text, creatorSignals)

	if matchesShopPath(r.URL) && !hasCreator {
		return reject(ReasonShopURL)
	}
	if countDistinct(text, shopContentPhrases) >= 2 && !hasCreator {
		return reject(ReasonShopContent)
	}

	if opts.Country != "" && !tldAllowed(domain, opts.Country) {
		return reject(ReasonWrongTLD)
	}

	if opts.Language != "" {
		if v := DetectLanguage(r.Title+" "+r.Snippet, opts.Language); v == LangMismatch {
			return reject(ReasonWrongLanguage)
		}
	}

	return pass()
}

// ApplyWeb filters a web result slice and sorts survivors so that items with
// creator/partnership signals rank first. Order is otherwise stable.
func ApplyWeb(results []candidate.Result, opts Options) []candidate.Result {
	out := make([]candidate.Result, 0, len(results))
	for _, r := range results {
		if EvaluateWeb(r, opts).Pass {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		si := hasCreatorSignal(out[i])
		sj := hasCreatorSignal(out[j])
		return si && !sj
	})
	return out
}

// EvaluateSocial runs the social branch checks on a single profile-bearing
// result. Shop and TLD checks don't apply: the platform constrains the domain.
func EvaluateSocial(r candidate.Result, opts Options) Decision {
	if r.Profile == nil {
		return reject(ReasonNoProfile)
	}

	if matchesBrand(r, opts) {
		return reject(ReasonBrandMatch)
	}

	if opts.Language != "" {
		text := r.Title + " " + r.Snippet
		if r.Profile.Bio != "" {
			text += " " + r.Profile.Bio
		}
		if v := DetectLanguage(text, opts.Language); v == LangMismatch {
			return reject(ReasonWrongLanguage)
		}
	}

	return pass()
}

// ApplySocial filters a social result slice, preserving provider order.
func ApplySocial(results []candidate.Result, opts Options) []candidate.Result {
	out := make([]candidate.Result, 0, len(results))
	for _, r := range results {
		if EvaluateSocial(r, opts).Pass {
			out = append(out, r)
		}
	}
	return out
}

func isBlockedDomain(domain string, opts Options) bool {
	if domain == "" {
		return false
	}
	if blockedDomains[domain] {
		return true
	}
	if opts.BrandDomain != "" && domain == candidate.RegistrableDomain(opts.BrandDomain) {
		return true
	}
	for _, ex := range opts.ExtraExclusions {
		if domain == candidate.RegistrableDomain(ex) {
			return true
		}
	}
	return false
}

func matchesShopPath(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, p := range shopPathPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func tldAllowed(domain, country string) bool {
	if domain == "" {
		return false
	}
	for _, suf := range genericTLDs {
		if strings.HasSuffix(domain, suf) {
			return true
		}
	}
	allowed, ok := countryTLDs[strings.ToLower(strings.TrimSpace(country))]
	if !ok {
		// Unknown country: don't reject on TLD grounds.
		return true
	}
	for _, suf := range allowed {
		if strings.HasSuffix(domain, suf) {
			return true
		}
	}
	return false
}

// brandTokens normalizes a brand or competitor domain into comparable tokens:
// "My-Brand.com" -> "mybrand".
func brandTokens(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if i := strings.IndexByte(d, '.'); i >= 0 {
		d = d[:i]
	}
	var b strings.Builder
	for _, c := range d {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func matchesBrand(r candidate.Result, opts Options) bool {
	brands := make([]string, 0, 1+len(opts.CompetitorDomains))
	if t := brandTokens(opts.BrandDomain); t != "" {
		brands = append(brands, t)
	}
	for _, c := range opts.CompetitorDomains {
		if t := brandTokens(c); t != "" {
			brands = append(brands, t)
		}
	}
	if len(brands) == 0 {
		return false
	}

	handle := brandTokens(r.Profile.Handle)
	name := brandTokens(r.Profile.DisplayName)
	title := strings.ToLower(r.Title)

	for _, b := range brands {
		if handle != "" && strings.Contains(handle, b) {
			return true
		}
		if name != "" && strings.Contains(name, b) {
			return true
		}
		// "Acme Official" style account titles.
		if strings.HasPrefix(title, b) {
			return true
		}
	}
	return false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func countDistinct(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}

func hasCreatorSignal(r candidate.Result) bool {
	return containsAny(strings.ToLower(r.Title+" "+r.Snippet), creatorSignals)
}
