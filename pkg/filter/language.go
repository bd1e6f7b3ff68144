package filter

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// LangVerdict is the outcome of the language detection step.
type LangVerdict int

const (
	// LangSkipped means the text was too short for a reliable decision;
	// the item passes through unfiltered.
	LangSkipped LangVerdict = iota
	LangMatch
	LangMismatch
)

// minDetectLength is the minimum combined text length (runes) for trigram
// detection to be trusted. Below it we skip rather than reject.
const minDetectLength = 20

// languageNames maps user-facing language names to whatlanggo codes.
var languageNames = map[string]whatlanggo.Lang{
	"english":    whatlanggo.Eng,
	"german":     whatlanggo.Deu,
	"french":     whatlanggo.Fra,
	"spanish":    whatlanggo.Spa,
	"italian":    whatlanggo.Ita,
	"portuguese": whatlanggo.Por,
	"dutch":      whatlanggo.Nld,
	"swedish":    whatlanggo.Swe,
	"danish":     whatlanggo.Dan,
	"norwegian":  whatlanggo.Nob,
	"finnish":    whatlanggo.Fin,
	"polish":     whatlanggo.Pol,
	"czech":      whatlanggo.Ces,
	// The detector ships no Slovak model; Czech is the closest trigram profile.
	"slovak":    whatlanggo.Ces,
	"russian":   whatlanggo.Rus,
	"ukrainian": whatlanggo.Ukr,
	"turkish":   whatlanggo.Tur,
	"japanese":  whatlanggo.Jpn,
	"korean":    whatlanggo.Kor,
}

// relatedLanguages groups mutually-intelligible languages that trigram
// detection frequently confuses. A detection landing anywhere in the target's
// group counts as a match, to avoid over-rejecting.
var relatedLanguages = [][]whatlanggo.Lang{
	{whatlanggo.Swe, whatlanggo.Dan, whatlanggo.Nob}, // Scandinavian
	{whatlanggo.Spa, whatlanggo.Por},
	{whatlanggo.Rus, whatlanggo.Ukr},
}

// DetectLanguage compares the detected language of text against the target
// language name. Texts shorter than minDetectLength runes are skipped.
func DetectLanguage(text, target string) LangVerdict {
	want, ok := languageNames[strings.ToLower(strings.TrimSpace(target))]
	if !ok {
		// Unknown target language: nothing sensible to compare against.
		return LangSkipped
	}

	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < minDetectLength {
		return LangSkipped
	}

	got := whatlanggo.DetectLang(trimmed)
	if got == want {
		return LangMatch
	}
	for _, group := range relatedLanguages {
		if langInGroup(want, group) && langInGroup(got, group) {
			return LangMatch
		}
	}
	return LangMismatch
}

func langInGroup(l whatlanggo.Lang, group []whatlanggo.Lang) bool {
	for _, g := range group {
		if l == g {
			return true
		}
	}
	return false
}
