// Package ui contains the Fyne desktop interface: the root window with the
// URL entry and download controls, plus the settings, history and stream
// selection dialogs.
package ui
