package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPrepareObjectName(t *testing.T) {
	got := prepareObjectName("cards.pdf", &FileUploadOptions{DirectoryPath: GetBatchDirectoryPath("x")})
	if got != "batches/x/cards.pdf" {
		t.Errorf("prepareObjectName() = %q, want batches/x/cards.pdf", got)
	}

	if got := prepareObjectName("cards.pdf", nil); got != "cards.pdf" {
		t.Errorf("prepareObjectName(nil) = %q, want cards.pdf", got)
	}
}

func TestDetectContentType(t *testing.T) {
	dir := t.TempDir()

	pdfPath := filepath.Join(dir, "cards.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.7"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := detectContentType(pdfPath)
	if err != nil || got != "application/pdf" {
		t.Errorf("detectContentType(pdf) = %q, %v", got, err)
	}

	// No extension falls back to sniffing
	rawPath := filepath.Join(dir, "card")
	if err := os.WriteFile(rawPath, []byte("\x89PNG\r\n\x1a\n0000"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = detectContentType(rawPath)
	if err != nil || got != "image/png" {
		t.Errorf("detectContentType(sniffed) = %q, %v", got, err)
	}
}
