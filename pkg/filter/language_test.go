package filter

import "testing"

func TestDetectLanguageShortTextSkips(t *testing.T) {
	if v := DetectLanguage("zu kurz", "German"); v != LangSkipped {
		t.Fatalf("expected LangSkipped for short text, got %v", v)
	}
}

func TestDetectLanguageUnknownTargetSkips(t *testing.T) {
	if v := DetectLanguage("a perfectly long sentence that could be detected", "Klingon"); v != LangSkipped {
		t.Fatalf("expected LangSkipped for unknown target, got %v", v)
	}
}

func TestDetectLanguageMatch(t *testing.T) {
	text := "We compared the battery life and accuracy of every fitness tracker on the market this year."
	if v := DetectLanguage(text, "English"); v != LangMatch {
		t.Fatalf("expected LangMatch, got %v", v)
	}
}

func TestDetectLanguageSlovakFallsBackToCzech(t *testing.T) {
	// Slovak has no model of its own; it rides on the Czech profile and must
	// neither reject Czech-detected text nor fail to resolve as a target.
	text := "Porovnali jsme výdrž baterie a přesnost všech fitness náramků na trhu."
	if v := DetectLanguage(text, "Slovak"); v == LangMismatch {
		t.Fatalf("expected Czech-profile text to be accepted for Slovak, got %v", v)
	}
	if v := DetectLanguage("krátky text", "Slovak"); v != LangSkipped {
		t.Fatalf("expected LangSkipped for short text, got %v", v)
	}
}

func TestDetectLanguageMismatch(t *testing.T) {
	text := "Wir haben die Akkulaufzeit und Genauigkeit aller Fitness Tracker auf dem Markt verglichen."
	if v := DetectLanguage(text, "Japanese"); v != LangMismatch {
		t.Fatalf("expected LangMismatch, got %v", v)
	}
}
