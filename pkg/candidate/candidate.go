package candidate

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// Platform identifies one external content source.
type Platform string

const (
	PlatformWeb       Platform = "web"
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

// AllPlatforms lists every supported platform in a fixed order.
var AllPlatforms = []Platform{PlatformWeb, PlatformYouTube, PlatformInstagram, PlatformTikTok}

// ParsePlatform maps a user-supplied platform name to a known Platform.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "web", "google":
		return PlatformWeb, nil
	case "youtube", "video":
		return PlatformYouTube, nil
	case "instagram", "ig":
		return PlatformInstagram, nil
	case "tiktok":
		return PlatformTikTok, nil
	}
	return "", fmt.Errorf("unknown platform: %q", s)
}

// ExecutionMode selects how results are delivered to the caller.
type ExecutionMode string

const (
	ModeStream ExecutionMode = "stream" // live NDJSON stream
	ModeJob    ExecutionMode = "job"    // fire-and-forget, poll for status
)

// SearchRequest is one accepted discovery request. Immutable after Validate.
type SearchRequest struct {
	Owner             string        `json:"owner"`
	Keyword           string        `json:"keyword"`
	Platforms         []Platform    `json:"platforms"`
	Country           string        `json:"country,omitempty"`
	Language          string        `json:"language,omitempty"`
	BrandDomain       string        `json:"brandDomain,omitempty"`
	CompetitorDomains []string      `json:"competitorDomains,omitempty"`
	Budget            time.Duration `json:"budget,omitempty"`
	Mode              ExecutionMode `json:"mode,omitempty"`
}

var (
	ErrEmptyKeyword = errors.New("keyword must not be empty")
	ErrNoPlatforms  = errors.New("at least one platform is required")
)

// DefaultBudget bounds a request's wall-clock time when the caller doesn't.
const DefaultBudget = 3 * time.Minute

// Validate checks required fields and normalizes the platform set
// (deduplicated, order of first occurrence preserved).
func (r *SearchRequest) Validate() error {
	r.Keyword = strings.TrimSpace(r.Keyword)
	if r.Keyword == "" {
		return ErrEmptyKeyword
	}
	if len(r.Platforms) == 0 {
		return ErrNoPlatforms
	}

	seen := make(map[Platform]bool, len(r.Platforms))
	deduped := r.Platforms[:0]
	for _, p := range r.Platforms {
		if _, err := ParsePlatform(string(p)); err != nil {
			return err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		deduped = append(deduped, p)
	}
	r.Platforms = deduped

	if r.Budget <= 0 {
		r.Budget = DefaultBudget
	}
	if r.Mode == "" {
		r.Mode = ModeStream
	}
	r.BrandDomain = strings.ToLower(strings.TrimSpace(r.BrandDomain))
	return nil
}

// Profile carries optional platform-specific metadata for a candidate.
// Shape varies by platform but is always this flat, optional-field record.
type Profile struct {
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Followers   int64  `json:"followers,omitempty"`
	Subscribers int64  `json:"subscribers,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
	Likes       int64  `json:"likes,omitempty"`
	Videos      int64  `json:"videos,omitempty"`
}

// EnrichmentRecord is transient traffic/analytics data keyed by domain or URL.
type EnrichmentRecord struct {
	Key           string    `json:"key"`
	MonthlyVisits int64     `json:"monthlyVisits,omitempty"`
	GlobalRank    int64     `json:"globalRank,omitempty"`
	Category      string    `json:"category,omitempty"`
	TopKeywords   []string  `json:"topKeywords,omitempty"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// Result is one discovered candidate.
// Uniqueness key: (owner, canonical URL).
type Result struct {
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	Snippet     string            `json:"snippet,omitempty"`
	Platform    Platform          `json:"platform"`
	Domain      string            `json:"domain"`
	Profile     *Profile          `json:"profile,omitempty"`
	Email       string            `json:"email,omitempty"`
	IsEnriching bool              `json:"isEnriching"`
	Enrichment  *EnrichmentRecord `json:"enrichment,omitempty"`
}

// Key returns the persistence uniqueness key for this result.
func (r Result) Key(owner string) string {
	return owner + "|" + r.URL
}

// RegistrableDomain extracts the registrable (eTLD+1) domain from a raw URL
// or bare hostname. Returns "" when nothing domain-shaped can be derived.
func RegistrableDomain(raw string) string {
	host := raw
	if strings.Contains(raw, "/") || strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err == nil && u.Host != "" {
			host = u.Host
		}
	}
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}
	dom, err := publicsuffix.Domain(host)
	if err != nil {
		return host
	}
	return dom
}

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// ExtractEmail returns the first email-shaped token in free text, or "".
// Used by adapters to pull contact addresses out of biography fields.
func ExtractEmail(text string) string {
	return emailRe.FindString(text)
}
