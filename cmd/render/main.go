package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/SeakMengs/AutoCard/internal/config"
	"github.com/SeakMengs/AutoCard/internal/env"
	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
)

// Renders a batch from a CSV roster without the platform API, for example
// when cards are printed offline.
//
//	go run ./cmd/render -csv students.csv -layout layout.json -sides front,back -out out
func main() {
	csvPath := flag.String("csv", "", "student roster CSV")
	layoutPath := flag.String("layout", "", `template layout JSON, {"front": {...}, "back": {...}}; catalog defaults when empty`)
	kind := flag.String("kind", autocard.IDCardCatalog.Name, "id-card or certificate")
	sidesFlag := flag.String("sides", "front", "comma separated sides to render")
	presetName := flag.String("preset", "", "output preset, the catalog's print preset when empty")
	formatFlag := flag.String("format", "png", "png or jpeg")
	outDir := flag.String("out", "out", "output directory")
	workers := flag.Int("workers", 0, "worker count, 0 picks from GOMAXPROCS")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	env.LoadEnv(".env")
	cfg := config.GetConfig()
	logger := util.NewLogger(cfg.ENV)
	defer logger.Sync()

	catalog, err := autocard.CatalogByName(*kind)
	if err != nil {
		log.Fatalf("Invalid kind: %v", err)
	}
	preset := autocard.IDCardPrint
	if catalog.Name == autocard.CertificateCatalog.Name {
		preset = autocard.CertificateExport
	}
	if *presetName != "" {
		p, ok := autocard.Presets[*presetName]
		if !ok {
			log.Fatalf("Unknown preset %q", *presetName)
		}
		preset = p
	}
	format, err := autocard.ParseImageFormat(*formatFlag)
	if err != nil {
		log.Fatalf("Invalid format: %v", err)
	}
	var sides []autocard.Side
	for _, s := range strings.Split(*sidesFlag, ",") {
		side, err := autocard.ParseSide(strings.TrimSpace(s))
		if err != nil {
			log.Fatalf("Invalid side: %v", err)
		}
		sides = append(sides, side)
	}

	template, err := readTemplate(*layoutPath, catalog)
	if err != nil {
		log.Fatalf("Failed to read layout: %v", err)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV: %v", err)
	}
	students, err := autocard.StudentsFromCSV(f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to parse CSV: %v", err)
	}
	subjects := make([]autocard.Subject, 0, len(students))
	for _, s := range students {
		subjects = append(subjects, s)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fonts := autocard.NewFontRegistry(autocard.FontConfig{
		MetadataPath: cfg.Render.FontMetadataPath,
		FontDir:      cfg.Render.FontDir,
	}, logger)
	// Only the platform receives the caller's token
	fetcher := autocard.NewHTTPAssetFetcher(cfg.Upstream.Timeout, autocard.URLHost(cfg.Upstream.BaseURL))
	var qr autocard.QRProvider = autocard.NewLocalQRProvider()
	if cfg.Render.QRProvider == config.QRProviderRemote {
		qr = autocard.NewRemoteQRProvider(cfg.Render.QRServiceURL, fetcher)
	}
	generator := autocard.NewBatchGenerator(autocard.NewCompositor(fonts, fetcher, qr, logger), logger)

	cards, err := generator.Generate(ctx, autocard.Batch{
		Catalog:   catalog,
		Template:  template,
		Sides:     sides,
		Preset:    preset,
		Format:    format,
		OutputDir: filepath.Join(*outDir, "cards"),
		Workers:   *workers,
	}, subjects)
	if err != nil {
		log.Fatalf("Failed to generate batch: %v", err)
	}

	zipFile := filepath.Join(*outDir, catalog.Name+".zip")
	pdfFile := filepath.Join(*outDir, catalog.Name+".pdf")
	if err := autocard.Package(cards, zipFile, pdfFile); err != nil {
		log.Fatalf("Failed to package batch: %v", err)
	}

	fmt.Printf("Generated %d %s cards into %q\n", len(cards), catalog.Name, *outDir)
}

func readTemplate(path string, catalog autocard.Catalog) (autocard.TemplateLayout, error) {
	t := autocard.TemplateLayout{
		Front: autocard.DefaultLayout(catalog),
		Back:  autocard.DefaultLayout(catalog),
	}
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	var raw struct {
		Front json.RawMessage `json:"front"`
		Back  json.RawMessage `json:"back"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return t, err
	}

	for _, side := range []struct {
		raw json.RawMessage
		dst **autocard.LayoutConfig
	}{{raw.Front, &t.Front}, {raw.Back, &t.Back}} {
		if len(side.raw) == 0 || string(side.raw) == "null" {
			continue
		}
		l, err := autocard.ParseLayoutConfig(side.raw, catalog)
		if err != nil {
			return t, err
		}
		*side.dst = l
	}
	return t, nil
}
