package ui

import (
	"fmt"
	"testing"

	"fyne.io/fyne/v2/test"

	"github.com/tiktoksage/tiktok-sage/internal/config"
	"github.com/tiktoksage/tiktok-sage/internal/download"
	"github.com/tiktoksage/tiktok-sage/internal/history"
	"github.com/tiktoksage/tiktok-sage/internal/locale"
)

func newTestRootUI(t *testing.T) *RootUI {
	t.Helper()

	app := test.NewApp()
	window := app.NewWindow("test")

	messages, err := locale.NewProvider()
	if err != nil {
		t.Fatalf("Expected locale provider, got %v", err)
	}

	settings := config.DefaultSettings()
	runner := download.NewService(1, settings.Proxy)

	return NewRootUI(window, app, config.NewStore(""), settings, history.Open(""), runner, messages)
}

func TestApplySettingsPublishesNewSnapshot(t *testing.T) {
	ui := newTestRootUI(t)

	before := ui.currentSettings()
	updated := *before
	updated.Proxy = "http://127.0.0.1:8080"
	updated.SaveDescription = true
	ui.applySettings(&updated)

	after := ui.currentSettings()
	if after.Proxy != "http://127.0.0.1:8080" {
		t.Errorf("Expected updated proxy, got %q", after.Proxy)
	}
	if !after.SaveDescription {
		t.Error("Expected updated save_description")
	}

	// The snapshot handed out earlier is never mutated in place
	if before.Proxy != "" || before.SaveDescription {
		t.Errorf("Expected earlier snapshot unchanged, got %+v", before)
	}
}

func TestSettingsSnapshotSafeUnderConcurrentAccess(t *testing.T) {
	ui := newTestRootUI(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			updated := *ui.currentSettings()
			updated.Proxy = fmt.Sprintf("http://proxy-%d:8080", i)
			ui.applySettings(&updated)
		}
	}()

	// Reads as done by a background fetch racing a settings save
	for i := 0; i < 500; i++ {
		_ = ui.currentSettings().Proxy
	}
	<-done
}
