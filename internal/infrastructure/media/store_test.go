package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestSaveValidImage(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	data := pngBytes(t)
	stored, err := store.Save(context.Background(), 7, "prescription.PNG", data)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if stored.Size != int64(len(data)) {
		t.Errorf("size = %d, want %d", stored.Size, len(data))
	}
	if !strings.HasPrefix(filepath.Base(stored.Path), "7_") {
		t.Errorf("filename %q not prefixed with user id", filepath.Base(stored.Path))
	}
	if filepath.Ext(stored.Path) != ".png" {
		t.Errorf("extension = %q, want lowercased .png", filepath.Ext(stored.Path))
	}

	onDisk, err := os.ReadFile(stored.Path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(onDisk, data) {
		t.Error("stored bytes differ from upload")
	}
}

func TestSaveUniqueNames(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	data := pngBytes(t)
	a, err := store.Save(context.Background(), 7, "rx.png", data)
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	b, err := store.Save(context.Background(), 7, "rx.png", data)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if a.Path == b.Path {
		t.Error("same original name produced the same stored path")
	}
}

func TestSaveRejectsCorruptImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	_, err = store.Save(context.Background(), 7, "rx.png", []byte("not an image"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("err = %v, want ErrInvalidImage", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected upload left %d files on disk", len(entries))
	}
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	_, err = store.Save(context.Background(), 7, "script.exe", []byte("MZ"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("err = %v, want ErrInvalidImage", err)
	}
}

func TestSavePDFHeaderCheck(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if _, err := store.Save(context.Background(), 7, "rx.pdf", []byte("%PDF-1.7 minimal")); err != nil {
		t.Errorf("valid PDF header rejected: %v", err)
	}
	if _, err := store.Save(context.Background(), 7, "rx.pdf", []byte("plain text")); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("err = %v, want ErrInvalidImage for bogus PDF", err)
	}
}

func TestRemoveMissingFileIsNoop(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Remove(context.Background(), filepath.Join(t.TempDir(), "gone.png")); err != nil {
		t.Errorf("Remove missing: %v", err)
	}
}
