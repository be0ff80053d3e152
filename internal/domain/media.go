package domain

import (
	"errors"
	"time"
)

// ErrInvalidImage marks uploads that fail validation; such files are never
// kept on disk.
var ErrInvalidImage = errors.New("invalid or corrupted image file")

// StoredFile locates an upload persisted by the file store.
type StoredFile struct {
	Path string
	Size int64
}

// MediaFile records an uploaded prescription or package image together with
// the classifier's structured result once processed.
type MediaFile struct {
	ID             int64
	UserID         int64
	OriginalName   string
	FilePath       string
	FileType       string
	MimeType       string
	FileSize       int64
	IsProcessed    bool
	AnalysisResult []byte // raw JSON from the classifier
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
