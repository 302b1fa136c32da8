package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tiktoksage/tiktok-sage/internal/model"
)

func TestLoadMissingFileCreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	settings, err := store.Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if settings.Language != DefaultLanguage {
		t.Errorf("Expected default language %s, got %s", DefaultLanguage, settings.Language)
	}
	if settings.DownloadDirectory == "" {
		t.Error("Download directory should not be empty")
	}

	// The defaults should have been persisted
	if _, err := os.Stat(filepath.Join(dir, SettingsFileName)); err != nil {
		t.Errorf("Expected settings file to be created, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	saved := &Settings{
		DownloadDirectory: "/tmp/out",
		Language:          "en",
		Proxy:             "http://127.0.0.1:8080",
		SaveDescription:   true,
		AudioOnlyDefault:  true,
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if *loaded != *saved {
		t.Errorf("Round trip mismatch: saved %+v, loaded %+v", saved, loaded)
	}
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SettingsFileName)
	if err := os.WriteFile(path, []byte("{{{not yaml"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	store := NewStore(dir)
	settings, err := store.Load()
	if settings == nil {
		t.Fatal("Expected usable settings despite corrupt file")
	}
	if settings.Language != DefaultLanguage {
		t.Errorf("Expected defaults, got %+v", settings)
	}

	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError, got %v", err)
	}
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SettingsFileName)
	content := "download_directory: /tmp/out\nlanguage: es\nfuture_option: 42\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	settings, err := NewStore(dir).Load()
	if err != nil {
		t.Fatalf("Unknown keys must not be an error, got %v", err)
	}
	if settings.DownloadDirectory != "/tmp/out" {
		t.Errorf("Expected /tmp/out, got %s", settings.DownloadDirectory)
	}
	if settings.Language != "es" {
		t.Errorf("Expected es, got %s", settings.Language)
	}
}

func TestLoadKeepsDefaultsForUnspecifiedOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SettingsFileName)
	if err := os.WriteFile(path, []byte("save_description: true\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	settings, err := NewStore(dir).Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !settings.SaveDescription {
		t.Error("Expected save_description to be true")
	}
	if settings.Language != DefaultLanguage {
		t.Errorf("Expected untouched default language, got %s", settings.Language)
	}
	if settings.DownloadDirectory == "" {
		t.Error("Expected untouched default download directory")
	}
}

func TestInMemoryStore(t *testing.T) {
	store := NewStore("")

	settings, err := store.Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if settings.Language != DefaultLanguage {
		t.Error("Expected defaults from in-memory store")
	}

	if err := store.Save(settings); err != nil {
		t.Errorf("In-memory save must be a no-op, got %v", err)
	}
}
