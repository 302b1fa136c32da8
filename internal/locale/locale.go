package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tiktoksage/tiktok-sage/internal/logging"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLanguage is the complete fallback locale. Every key referenced by
// the UI exists in its bundle.
const DefaultLanguage = "en"

// Message keys used by the application shell
const (
	KeyAppTitle           = "app_title"
	KeyAnalyze            = "analyze"
	KeyDownload           = "download"
	KeyCancel             = "cancel"
	KeySettings           = "settings"
	KeyHistory            = "history"
	KeySave               = "save"
	KeyClose              = "close"
	KeyBrowse             = "browse"
	KeyRemove             = "remove"
	KeySearch             = "search"
	KeyClearHistory       = "clear_history"
	KeyOpenFile           = "open_file"
	KeyEnterURL           = "enter_url"
	KeyPleaseEnterURL     = "please_enter_url"
	KeyInvalidURL         = "invalid_url"
	KeyFetchFailed        = "fetch_failed"
	KeyRetry              = "retry"
	KeyLanguage           = "language"
	KeyDownloadDirectory  = "download_directory"
	KeyProxy              = "proxy"
	KeySaveDescription    = "save_description"
	KeyAudioOnlyDefault   = "audio_only_default"
	KeyQuality            = "quality"
	KeyAuthor             = "author"
	KeyDescription        = "description"
	KeyStatusReady        = "status_ready"
	KeyStatusFetching     = "status_fetching"
	KeyStatusDownloading  = "status_downloading"
	KeySettingsSaved      = "settings_saved"
	KeyDownloadStarted    = "download_started"
	KeyDownloadCompleted  = "download_completed"
	KeyDownloadCancelled  = "download_cancelled"
	KeyDownloadFailed     = "download_failed"
	KeyDestinationBusy    = "destination_busy"
	KeySelectStream       = "select_stream"
	KeyAudioOnly          = "audio_only"
	KeyHistoryEmpty       = "history_empty"
	KeyErrorOpeningFile   = "error_opening_file"
)

// Provider resolves message keys to localized strings, falling back to the
// default English bundle for keys absent from the selected locale.
type Provider struct {
	mu      sync.RWMutex
	current string
	bundles map[string]map[string]string
}

// NewProvider loads the default locale bundle. A missing or invalid English
// bundle is a construction error: without it no fallback exists.
func NewProvider() (*Provider, error) {
	p := &Provider{
		current: DefaultLanguage,
		bundles: make(map[string]map[string]string),
	}
	if err := p.load(DefaultLanguage); err != nil {
		return nil, fmt.Errorf("default locale %q is unavailable: %w", DefaultLanguage, err)
	}
	return p, nil
}

// load parses one embedded locale file into the bundle cache
func (p *Provider) load(code string) error {
	if _, ok := p.bundles[code]; ok {
		return nil
	}

	data, err := localeFS.ReadFile("locales/" + code + ".json")
	if err != nil {
		return err
	}
	bundle := make(map[string]string)
	if err := json.Unmarshal(data, &bundle); err != nil {
		return fmt.Errorf("invalid locale file %s: %w", code, err)
	}
	p.bundles[code] = bundle
	return nil
}

// SetLanguage switches the active locale. Unknown locales keep the current
// one and log a warning.
func (p *Provider) SetLanguage(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.load(code); err != nil {
		logging.GetLogger("locale").Warn().Err(err).Str("locale", code).Msg("Locale unavailable, keeping current language")
		return
	}
	p.current = code
}

// CurrentLanguage returns the active locale code
func (p *Provider) CurrentLanguage() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Resolve returns the localized text for key: active locale first, then the
// English fallback, then the key itself.
func (p *Provider) Resolve(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if bundle, ok := p.bundles[p.current]; ok {
		if text, found := bundle[key]; found {
			return text
		}
	}
	if text, found := p.bundles[DefaultLanguage][key]; found {
		return text
	}

	logging.GetLogger("locale").Warn().Str("key", key).Msg("Missing translation key")
	return key
}

// AvailableLanguages returns locale codes with their display names
func (p *Provider) AvailableLanguages() map[string]string {
	return map[string]string{
		"en": "English",
		"es": "Español",
		"pt": "Português",
		"ru": "Русский",
	}
}
