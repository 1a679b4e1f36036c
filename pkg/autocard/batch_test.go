package autocard

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetermineWorkers(t *testing.T) {
	tests := []struct {
		name       string
		jobs       int
		configured int
		max        int
	}{
		{"Configured below job count", 10, 3, 3},
		{"Bounded by job count", 2, 8, 2},
		{"No jobs", 0, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineWorkers(tt.jobs, tt.configured); got != tt.max {
				t.Errorf("expected %d workers, got %d", tt.max, got)
			}
		})
	}
	if got := DetermineWorkers(1000, 0); got < 1 {
		t.Errorf("expected at least one worker, got %d", got)
	}
}

func testBatch(t *testing.T) Batch {
	return Batch{
		Catalog:   IDCardCatalog,
		Template:  TemplateLayout{Front: onlyFields(FieldStudentName, FieldQRCode), Back: onlyFields(FieldBackNotice)},
		Sides:     []Side{SideFront, SideBack},
		Preset:    IDCardPreview,
		Format:    FormatPNG,
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Workers:   2,
	}
}

func TestBatchGenerate(t *testing.T) {
	g := NewBatchGenerator(newTestCompositor(nil), nil)
	subjects := []Subject{
		Student{ID: "1", AdmissionNumber: "ADM-1", FullName: "One"},
		Student{ID: "2", AdmissionNumber: "ADM-2", FullName: "Two"},
		Student{ID: "3", FullName: "Three"},
	}

	b := testBatch(t)
	cards, err := g.Generate(context.Background(), b, subjects)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}

	for i, card := range cards {
		if card.Number != i+1 {
			t.Errorf("card %d has number %d", i, card.Number)
		}
		if card.FileStem != subjects[i].FileStem() {
			t.Errorf("card %d out of order: %s", i, card.FileStem)
		}
		if len(card.Images) != 2 {
			t.Errorf("expected front and back images, got %v", card.Images)
		}
		for _, p := range append(card.Images, card.PDFPath) {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("missing output %s: %v", p, err)
			}
		}
	}
	if want := "001-id-card-ADM-1-front.png"; filepath.Base(cards[0].Images[0]) != want {
		t.Errorf("expected %s, got %s", want, filepath.Base(cards[0].Images[0]))
	}

	zipFile := filepath.Join(t.TempDir(), "cards.zip")
	if err := Package(cards, zipFile, ""); err != nil {
		t.Fatalf("unexpected error packaging: %v", err)
	}
	zr, err := zip.OpenReader(zipFile)
	if err != nil {
		t.Fatalf("unexpected error opening archive: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 9 {
		t.Errorf("expected 6 images and 3 PDFs, got %d entries", len(zr.File))
	}
}

func TestBatchGenerateMissingSide(t *testing.T) {
	g := NewBatchGenerator(newTestCompositor(nil), nil)
	b := testBatch(t)
	b.Template.Back = nil

	_, err := g.Generate(context.Background(), b, []Subject{Student{ID: "1"}})
	if !errors.Is(err, ErrLayoutMissing) {
		t.Errorf("expected ErrLayoutMissing, got %v", err)
	}
}

func TestBatchGenerateFirstErrorWins(t *testing.T) {
	g := NewBatchGenerator(newTestCompositor(nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, testBatch(t), []Subject{Student{ID: "1"}, Student{ID: "2"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestZipFilesRenamesDuplicates(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, rel := range []string{"a/card.png", "b/card_2.png", "c/card.png"} {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(rel), 0644); err != nil {
			t.Fatal(err)
		}
		files = append(files, p)
	}

	zipFile := filepath.Join(dir, "out.zip")
	if err := ZipFiles(files, zipFile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zr, err := zip.OpenReader(zipFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if got := strings.Join(names, ","); got != "card.png,card_2.png,card_3.png" {
		t.Errorf("unexpected entries %s", got)
	}
}
