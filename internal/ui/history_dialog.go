package ui

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/tiktoksage/tiktok-sage/internal/history"
	"github.com/tiktoksage/tiktok-sage/internal/locale"
	"github.com/tiktoksage/tiktok-sage/internal/logging"
	"github.com/tiktoksage/tiktok-sage/internal/model"
	"github.com/tiktoksage/tiktok-sage/internal/platform"
)

// Timestamp format for history rows
const HistoryTimeFormat = "2006-01-02 15:04"

// HistoryDialog shows past downloads, most recent first, with search and
// per-record removal.
type HistoryDialog struct {
	store    *history.Store
	messages *locale.Provider
	window   fyne.Window
	dialog   *dialog.CustomDialog

	searchEntry *widget.Entry
	list        *widget.List
	emptyLabel  *widget.Label
	records     []model.HistoryRecord
}

// ShowHistoryDialog creates and shows the history dialog
func ShowHistoryDialog(window fyne.Window, store *history.Store, messages *locale.Provider) {
	hd := &HistoryDialog{
		store:    store,
		messages: messages,
		window:   window,
	}

	hd.createUI()
	hd.reload("")
	hd.dialog.Show()
}

// createUI creates the history dialog UI
func (hd *HistoryDialog) createUI() {
	hd.searchEntry = widget.NewEntry()
	hd.searchEntry.SetPlaceHolder(hd.messages.Resolve(locale.KeySearch))
	hd.searchEntry.OnChanged = func(query string) {
		hd.reload(query)
	}

	hd.emptyLabel = widget.NewLabel(hd.messages.Resolve(locale.KeyHistoryEmpty))
	hd.emptyLabel.Hide()

	hd.list = widget.NewList(
		func() int {
			return len(hd.records)
		},
		func() fyne.CanvasObject { return hd.createHistoryItem() },
		func(id widget.ListItemID, obj fyne.CanvasObject) { hd.updateHistoryItem(id, obj) },
	)

	clearBtn := widget.NewButton(hd.messages.Resolve(locale.KeyClearHistory), hd.onClearHistory)
	clearBtn.Importance = widget.LowImportance

	content := container.NewBorder(
		hd.searchEntry,                                // top
		clearBtn,                                      // bottom
		nil,                                           // left
		nil,                                           // right
		container.NewStack(hd.list, hd.emptyLabel),
	)

	hd.dialog = dialog.NewCustom(
		hd.messages.Resolve(locale.KeyHistory),
		hd.messages.Resolve(locale.KeyClose),
		content,
		hd.window,
	)
	hd.dialog.Resize(fyne.NewSize(HistoryDialogWidth, HistoryDialogHeight))
}

// createHistoryItem creates one empty history row
func (hd *HistoryDialog) createHistoryItem() fyne.CanvasObject {
	titleLabel := widget.NewLabel("")
	titleLabel.Truncation = fyne.TextTruncateEllipsis
	detailLabel := widget.NewLabel("")
	detailLabel.Truncation = fyne.TextTruncateEllipsis

	openBtn := widget.NewButton(IconFile, nil)
	openBtn.Importance = widget.LowImportance
	removeBtn := widget.NewButton(IconClose, nil)
	removeBtn.Importance = widget.LowImportance

	return container.NewBorder(nil, nil, nil, container.NewHBox(openBtn, removeBtn),
		container.NewVBox(titleLabel, detailLabel))
}

// updateHistoryItem fills a row with record data and wires its buttons
func (hd *HistoryDialog) updateHistoryItem(id widget.ListItemID, item fyne.CanvasObject) {
	if id >= len(hd.records) {
		return
	}
	record := hd.records[id]

	row, ok := item.(*fyne.Container)
	if !ok || len(row.Objects) < 2 {
		return
	}

	labels := row.Objects[0].(*fyne.Container)
	titleLabel := labels.Objects[0].(*widget.Label)
	detailLabel := labels.Objects[1].(*widget.Label)

	kindIcon := IconVideo
	if record.Kind == model.MediaKindAudio {
		kindIcon = IconAudio
	}
	titleLabel.SetText(kindIcon + " " + record.Title)
	detailLabel.SetText(record.DownloadedAt.Format(HistoryTimeFormat) + MiddleDotSeparator + record.OutputPath)

	buttons := row.Objects[1].(*fyne.Container)
	openBtn := buttons.Objects[0].(*widget.Button)
	removeBtn := buttons.Objects[1].(*widget.Button)

	openBtn.OnTapped = func() {
		if err := platform.OpenFileWithDefaultApp(record.OutputPath); err != nil {
			widget.ShowPopUp(widget.NewLabel(hd.messages.Resolve(locale.KeyErrorOpeningFile)+": "+err.Error()), hd.window.Canvas())
		}
	}
	removeBtn.OnTapped = func() {
		if _, err := hd.store.Remove(record.ID); err != nil {
			logging.GetLogger("ui").Warn().Err(err).Int64("record", record.ID).Msg("Cannot remove history record")
			return
		}
		hd.reload(hd.searchEntry.Text)
	}
}

// onClearHistory removes every record after confirmation
func (hd *HistoryDialog) onClearHistory() {
	dialog.ShowConfirm(
		hd.messages.Resolve(locale.KeyClearHistory),
		hd.messages.Resolve(locale.KeyClearHistory)+"?",
		func(confirmed bool) {
			if !confirmed {
				return
			}
			if err := hd.store.Clear(); err != nil {
				logging.GetLogger("ui").Warn().Err(err).Msg("Cannot clear history")
				return
			}
			hd.reload(hd.searchEntry.Text)
		},
		hd.window,
	)
}

// reload refreshes the record list, applying the search query when present
func (hd *HistoryDialog) reload(query string) {
	var err error
	if strings.TrimSpace(query) == "" {
		hd.records, err = hd.store.ListAll()
	} else {
		hd.records, err = hd.store.Search(query)
	}
	if err != nil {
		logging.GetLogger("ui").Warn().Err(err).Msg("Cannot load history")
		hd.records = nil
	}

	if len(hd.records) == 0 {
		hd.emptyLabel.Show()
	} else {
		hd.emptyLabel.Hide()
	}
	hd.list.Refresh()
}
