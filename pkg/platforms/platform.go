// Package platforms defines the common adapter interface every content
// platform implements, plus the query shape handed to adapters.
package platforms

import (
	"context"
	"strings"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
)

// Query is one localized provider query derived from a SearchRequest.
type Query struct {
	Keyword  string
	Country  string
	Language string
	Limit    int
}

// DefaultLimit caps per-platform result counts when the caller doesn't.
const DefaultLimit = 20

// Provider adapts one platform's native search to candidate.Result records.
// Synchronous platforms answer within the call; asynchronous platforms wrap
// a jobs.Poller internally (start, poll, fetch) but expose the same contract.
type Provider interface {
	Name() candidate.Platform
	Search(ctx context.Context, q Query) ([]candidate.Result, error)
}

// SanitizeKeyword strips characters a provider's query grammar disallows and
// collapses the remaining whitespace. Each adapter passes its own disallowed
// set.
func SanitizeKeyword(keyword, disallowed string) string {
	var b strings.Builder
	for _, c := range keyword {
		if strings.ContainsRune(disallowed, c) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(c)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// countryCodes maps country names to ISO codes used for query localization.
var countryCodes = map[string]string{
	"germany": "de", "austria": "at", "switzerland": "ch", "france": "fr",
	"netherlands": "nl", "belgium": "be", "united kingdom": "gb", "uk": "gb",
	"united states": "us", "usa": "us", "spain": "es", "italy": "it",
	"sweden": "se", "denmark": "dk", "norway": "no", "finland": "fi",
	"poland": "pl",
}

// languageCodes maps language names to ISO codes.
var languageCodes = map[string]string{
	"english": "en", "german": "de", "french": "fr", "spanish": "es",
	"italian": "it", "portuguese": "pt", "dutch": "nl", "swedish": "sv",
	"danish": "da", "norwegian": "no", "finnish": "fi", "polish": "pl",
	"czech": "cs", "slovak": "sk", "russian": "ru", "ukrainian": "uk",
	"turkish": "tr", "japanese": "ja", "korean": "ko",
}

// CountryCode returns the ISO country code for a country name, or "".
func CountryCode(country string) string {
	return countryCodes[strings.ToLower(strings.TrimSpace(country))]
}

// LanguageCode returns the ISO language code for a language name, or "".
func LanguageCode(language string) string {
	return languageCodes[strings.ToLower(strings.TrimSpace(language))]
}
