package ui

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/tiktoksage/tiktok-sage/internal/config"
	"github.com/tiktoksage/tiktok-sage/internal/locale"
	"github.com/tiktoksage/tiktok-sage/internal/logging"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	store    *config.Store
	settings *config.Settings
	messages *locale.Provider
	window   fyne.Window
	dialog   *dialog.ConfirmDialog
	onSaved  func()

	// UI components
	downloadDirEntry *widget.Entry
	languageSelect   *widget.Select
	proxyEntry       *widget.Entry
	saveDescCheck    *widget.Check
	audioOnlyCheck   *widget.Check
}

// ShowSettingsDialog creates the dialog, loads current values and shows it.
// onSaved runs after a confirmed save.
func ShowSettingsDialog(window fyne.Window, store *config.Store, settings *config.Settings, messages *locale.Provider, onSaved func()) {
	sd := &SettingsDialog{
		store:    store,
		settings: settings,
		messages: messages,
		window:   window,
		onSaved:  onSaved,
	}

	sd.createUI()
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	// Download directory selection
	sd.downloadDirEntry = widget.NewEntry()
	browseDirBtn := widget.NewButton(sd.messages.Resolve(locale.KeyBrowse), sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	// Language selection
	languageOptions := []string{}
	for code := range sd.messages.AvailableLanguages() {
		languageOptions = append(languageOptions, code)
	}
	sd.languageSelect = widget.NewSelect(languageOptions, nil)

	// Proxy
	sd.proxyEntry = widget.NewEntry()
	sd.proxyEntry.SetPlaceHolder("http://host:port")

	// Behavior toggles
	sd.saveDescCheck = widget.NewCheck(sd.messages.Resolve(locale.KeySaveDescription), nil)
	sd.audioOnlyCheck = widget.NewCheck(sd.messages.Resolve(locale.KeyAudioOnlyDefault), nil)

	form := container.NewVBox(
		widget.NewLabel(sd.messages.Resolve(locale.KeyDownloadDirectory)),
		downloadDirRow,

		widget.NewLabel(sd.messages.Resolve(locale.KeyLanguage)),
		sd.languageSelect,

		widget.NewLabel(sd.messages.Resolve(locale.KeyProxy)),
		sd.proxyEntry,

		widget.NewSeparator(),
		sd.saveDescCheck,
		sd.audioOnlyCheck,
	)

	sd.dialog = dialog.NewCustomConfirm(
		sd.messages.Resolve(locale.KeySettings),
		sd.messages.Resolve(locale.KeySave),
		sd.messages.Resolve(locale.KeyCancel),
		form,
		sd.onSave,
		sd.window,
	)
	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.downloadDirEntry.SetText(sd.settings.DownloadDirectory)
	sd.languageSelect.SetSelected(sd.settings.Language)
	sd.proxyEntry.SetText(sd.settings.Proxy)
	sd.saveDescCheck.SetChecked(sd.settings.SaveDescription)
	sd.audioOnlyCheck.SetChecked(sd.settings.AudioOnlyDefault)
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}

	if dir := strings.TrimSpace(sd.downloadDirEntry.Text); dir != "" {
		sd.settings.DownloadDirectory = dir
	}
	if sd.languageSelect.Selected != "" {
		sd.settings.Language = sd.languageSelect.Selected
	}
	sd.settings.Proxy = strings.TrimSpace(sd.proxyEntry.Text)
	sd.settings.SaveDescription = sd.saveDescCheck.Checked
	sd.settings.AudioOnlyDefault = sd.audioOnlyCheck.Checked

	if err := sd.store.Save(sd.settings); err != nil {
		logging.GetLogger("ui").Error().Err(err).Msg("Cannot save settings")
		dialog.ShowError(err, sd.window)
		return
	}

	if sd.onSaved != nil {
		sd.onSaved()
	}
}
