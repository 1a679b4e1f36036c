package autocard

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Batch describes one run over many subjects with the same template.
type Batch struct {
	Catalog  Catalog
	Template TemplateLayout
	// Sides to render per subject, front only when empty
	Sides       []Side
	Preset      Preset
	Padding     float64
	Backgrounds map[Side]string
	Format      ImageFormat
	Quality     int
	OutputDir   string
	// Zero picks a worker count from GOMAXPROCS
	Workers int
}

func (b Batch) sides() []Side {
	if len(b.Sides) == 0 {
		return []Side{SideFront}
	}
	return b.Sides
}

type GeneratedCard struct {
	Number   int
	ID       string
	FileStem string
	// One image per rendered side, in side order
	Images  []string
	PDFPath string
}

type BatchGenerator struct {
	compositor *Compositor
	logger     *zap.SugaredLogger
}

func NewBatchGenerator(compositor *Compositor, logger *zap.SugaredLogger) *BatchGenerator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &BatchGenerator{compositor: compositor, logger: logger}
}

type generationJob struct {
	index   int
	subject Subject
}

type generationResult struct {
	index int
	card  GeneratedCard
	err   error
}

// DetermineWorkers bounds the pool by the job count.
func DetermineWorkers(jobCount, configured int) int {
	workers := configured
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0) * 2
	}
	return min(max(workers, 1), max(jobCount, 1))
}

// Generate renders every subject on its own canvas and writes its images and a
// raster PDF into b.OutputDir. Results keep input order; the first error wins.
func (g *BatchGenerator) Generate(ctx context.Context, b Batch, subjects []Subject) ([]GeneratedCard, error) {
	if len(subjects) == 0 {
		return []GeneratedCard{}, nil
	}
	for _, side := range b.sides() {
		if _, err := b.Template.Side(side); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(b.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	maxWorkers := DetermineWorkers(len(subjects), b.Workers)
	g.logger.Debugf("Using %d workers for %d cards", maxWorkers, len(subjects))

	jobs := make(chan generationJob, len(subjects))
	results := make(chan generationResult, len(subjects))

	var wg sync.WaitGroup
	for range maxWorkers {
		wg.Add(1)
		go g.processWorkerJobs(ctx, b, jobs, results, &wg)
	}

	for i, s := range subjects {
		jobs <- generationJob{index: i, subject: s}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	return aggregateResults(results, len(subjects), cancel)
}

func (g *BatchGenerator) processWorkerJobs(ctx context.Context, b Batch, jobs <-chan generationJob, results chan<- generationResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- generationResult{index: job.index, err: err}
			continue
		}
		card, err := g.generateCard(ctx, b, job)
		results <- generationResult{index: job.index, card: card, err: err}
	}
}

func (g *BatchGenerator) generateCard(ctx context.Context, b Batch, job generationJob) (GeneratedCard, error) {
	card := GeneratedCard{
		Number:   job.index + 1,
		ID:       uuid.NewString(),
		FileStem: job.subject.FileStem(),
	}

	pages := make([]image.Image, 0, len(b.sides()))
	for _, side := range b.sides() {
		layout, _ := b.Template.Side(side)

		req := RenderRequest{
			Catalog:       b.Catalog,
			Layout:        layout,
			Subject:       job.subject,
			Padding:       b.Padding,
			BackgroundURL: b.Backgrounds[side],
		}.WithPreset(b.Preset)

		rendering, err := g.compositor.Render(ctx, req)
		if err != nil {
			return card, fmt.Errorf("failed to render %s side for row %d: %w", side, job.index, err)
		}
		pages = append(pages, rendering.Image)

		outFile := filepath.Join(b.OutputDir, fmt.Sprintf("%03d-%s", card.Number, ExportFileName(b.Catalog, job.subject, side, b.Format)))
		if err := writeImageFile(outFile, rendering.Image, b.Format, b.Quality); err != nil {
			return card, fmt.Errorf("failed to write %s side for row %d: %w", side, job.index, err)
		}
		card.Images = append(card.Images, outFile)
	}

	pdfFile := filepath.Join(b.OutputDir, fmt.Sprintf("%03d-%s.pdf", card.Number, card.ID))
	f, err := os.Create(pdfFile)
	if err != nil {
		return card, err
	}
	if err := RasterPDF(f, pages, b.Preset.PageSize()); err != nil {
		f.Close()
		return card, fmt.Errorf("failed to write PDF for row %d: %w", job.index, err)
	}
	if err := f.Close(); err != nil {
		return card, fmt.Errorf("failed to close PDF for row %d: %w", job.index, err)
	}
	card.PDFPath = pdfFile

	return card, nil
}

func writeImageFile(path string, img image.Image, format ImageFormat, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeImage(f, img, format, quality); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func aggregateResults(results <-chan generationResult, totalCount int, cancel context.CancelFunc) ([]GeneratedCard, error) {
	resultMap := make(map[int]GeneratedCard)
	var firstErr error

	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
				// Remaining workers stop at their next job
				cancel()
			}
		} else {
			resultMap[r.index] = r.card
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}

	cards := make([]GeneratedCard, 0, totalCount)
	for i := range totalCount {
		card, ok := resultMap[i]
		if !ok {
			return nil, fmt.Errorf("missing result for row %d", i)
		}
		cards = append(cards, card)
	}

	return cards, nil
}

// Package writes the batch archive and the merged PDF of all cards.
func Package(cards []GeneratedCard, zipFile, pdfFile string) error {
	var images, pdfs []string
	for _, c := range cards {
		images = append(images, c.Images...)
		if c.PDFPath != "" {
			pdfs = append(pdfs, c.PDFPath)
		}
	}

	if zipFile != "" {
		if err := ZipFiles(append(images, pdfs...), zipFile); err != nil {
			return fmt.Errorf("failed to zip batch: %w", err)
		}
	}
	if pdfFile != "" && len(pdfs) > 0 {
		if err := MergePDFFiles(pdfs, pdfFile); err != nil {
			return err
		}
	}
	return nil
}
