package model

import "time"

// HistoryRecord is one completed download as persisted in the history store.
// Records are append-only; duplicates are legitimate since re-downloads are.
type HistoryRecord struct {
	ID           int64
	URL          string
	Title        string
	OutputPath   string
	Kind         MediaKind
	DownloadedAt time.Time
}
