package locale

import "testing"

func TestNewProviderLoadsDefault(t *testing.T) {
	p, err := NewProvider()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p.CurrentLanguage() != DefaultLanguage {
		t.Errorf("Expected default language %s, got %s", DefaultLanguage, p.CurrentLanguage())
	}
}

func TestResolve(t *testing.T) {
	p, err := NewProvider()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if got := p.Resolve(KeyDownload); got != "Download" {
		t.Errorf("Expected 'Download', got %q", got)
	}

	// Unknown keys fall back to the key itself
	if got := p.Resolve("no_such_key"); got != "no_such_key" {
		t.Errorf("Expected key fallback, got %q", got)
	}
}

func TestSetLanguage(t *testing.T) {
	p, _ := NewProvider()

	p.SetLanguage("es")
	if p.CurrentLanguage() != "es" {
		t.Errorf("Expected language es, got %s", p.CurrentLanguage())
	}
	if got := p.Resolve(KeyDownload); got != "Descargar" {
		t.Errorf("Expected 'Descargar', got %q", got)
	}

	// Unknown locale keeps the current language
	p.SetLanguage("xx")
	if p.CurrentLanguage() != "es" {
		t.Errorf("Expected language to stay es, got %s", p.CurrentLanguage())
	}
}

func TestResolveFallsBackToEnglish(t *testing.T) {
	p, _ := NewProvider()
	p.SetLanguage("es")

	// Every key referenced by the UI must resolve to something readable even
	// if a non-default bundle dropped it.
	for _, key := range []string{KeyAppTitle, KeyAnalyze, KeyHistory, KeyDestinationBusy} {
		if got := p.Resolve(key); got == "" {
			t.Errorf("Key %s resolved to empty string", key)
		}
	}
}

func TestAvailableLanguagesLoadable(t *testing.T) {
	p, _ := NewProvider()

	for code := range p.AvailableLanguages() {
		p.SetLanguage(code)
		if p.CurrentLanguage() != code {
			t.Errorf("Advertised language %s failed to load", code)
		}
	}
}
