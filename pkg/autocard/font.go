package autocard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

type FontWeight string

const (
	FontWeightRegular FontWeight = "regular"
	FontWeightBold    FontWeight = "bold"
)

func weightOf(bold bool) FontWeight {
	if bold {
		return FontWeightBold
	}
	return FontWeightRegular
}

// Family name used when nothing in a stack is registered.
const FallbackFontFamily = "Go"

type FontMetadata struct {
	Name   string     `json:"name"`
	Path   string     `json:"path"`
	Weight FontWeight `json:"weight,omitempty"`
}

func getFontMetadataByPath(fontPath string) (*FontMetadata, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	f, err := sfnt.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	name, err := f.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		return nil, fmt.Errorf("retrieving font name: %w", err)
	}

	weight := FontWeightRegular
	if sub, err := f.Name(nil, sfnt.NameIDSubfamily); err == nil && strings.Contains(strings.ToLower(sub), "bold") {
		weight = FontWeightBold
	}

	return &FontMetadata{
		Name:   name,
		Path:   fontPath,
		Weight: weight,
	}, nil
}

// Scan through the directory to process .ttf and .otf files.
func ScanFontDir(dir string, logger *zap.SugaredLogger) ([]FontMetadata, error) {
	var fonts []FontMetadata

	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(info.Name()))
		if ext != ".ttf" && ext != ".otf" {
			return nil
		}

		meta, err := getFontMetadataByPath(path)
		if err != nil {
			if logger != nil {
				logger.Debugf("Skipping %q: %v", path, err)
			}
			return nil
		}

		fonts = append(fonts, *meta)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fonts, nil
}

// List the available font family and its path from font_metadata.json
func GetAvailableFonts(path string) ([]FontMetadata, error) {
	var fonts []FontMetadata

	if path == "" {
		path = "font_metadata.json"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fonts, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &fonts); err != nil {
		return fonts, fmt.Errorf("unmarshalling %s: %w", path, err)
	}

	return fonts, nil
}

type FontConfig struct {
	// A path to json where it store font name and path to the font file
	MetadataPath string
	// Directory scanned for additional .ttf/.otf files
	FontDir string
}

type registeredFont struct {
	data   []byte
	parsed *opentype.Font
}

// FontRegistry is created once per process and passed to whoever draws text.
// Loading happens lazily on first use, exactly once.
type FontRegistry struct {
	cfg    FontConfig
	logger *zap.SugaredLogger

	once sync.Once
	mu   sync.RWMutex
	// lower-cased family name -> weight -> font
	families map[string]map[FontWeight]*registeredFont
	names    map[string]string
	fallback map[FontWeight]*registeredFont
}

func NewFontRegistry(cfg FontConfig, logger *zap.SugaredLogger) *FontRegistry {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FontRegistry{
		cfg:      cfg,
		logger:   logger,
		families: make(map[string]map[FontWeight]*registeredFont),
		names:    make(map[string]string),
		fallback: make(map[FontWeight]*registeredFont),
	}
}

func (r *FontRegistry) ensureLoaded() {
	r.once.Do(func() {
		for weight, data := range map[FontWeight][]byte{FontWeightRegular: goregular.TTF, FontWeightBold: gobold.TTF} {
			parsed, err := opentype.Parse(data)
			if err != nil {
				// The embedded Go fonts always parse
				panic(fmt.Sprintf("parsing embedded font: %v", err))
			}
			r.fallback[weight] = &registeredFont{data: data, parsed: parsed}
		}

		var metas []FontMetadata
		if r.cfg.MetadataPath != "" {
			fonts, err := GetAvailableFonts(r.cfg.MetadataPath)
			if err != nil {
				r.logger.Debugf("Font metadata not loaded, using fallback font: %v", err)
			}
			metas = append(metas, fonts...)
		}
		if r.cfg.FontDir != "" {
			fonts, err := ScanFontDir(r.cfg.FontDir, r.logger)
			if err != nil {
				r.logger.Debugf("Font directory %s not scanned: %v", r.cfg.FontDir, err)
			}
			metas = append(metas, fonts...)
		}

		for _, meta := range metas {
			data, err := os.ReadFile(meta.Path)
			if err != nil {
				r.logger.Debugf("Skipping font %s: %v", meta.Name, err)
				continue
			}
			if err := r.register(meta.Name, data, meta.Weight == FontWeightBold); err != nil {
				r.logger.Debugf("Skipping font %s: %v", meta.Name, err)
			}
		}
	})
}

// Register adds a font under a family name, replacing any previous font of the same weight.
func (r *FontRegistry) Register(family string, data []byte, bold bool) error {
	r.ensureLoaded()
	return r.register(family, data, bold)
}

func (r *FontRegistry) register(family string, data []byte, bold bool) error {
	family = strings.TrimSpace(family)
	if family == "" {
		return errors.New("font family name is empty")
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing font %s: %w", family, err)
	}

	key := strings.ToLower(family)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.families[key] == nil {
		r.families[key] = make(map[FontWeight]*registeredFont)
	}
	r.families[key][weightOf(bold)] = &registeredFont{data: data, parsed: parsed}
	r.names[key] = family
	return nil
}

// Families lists registered family names, sorted.
func (r *FontRegistry) Families() []string {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SplitFontStack splits a CSS font-family list, e.g. "'Noto Naskh Arabic', Arial".
func SplitFontStack(stack string) []string {
	var out []string
	for _, part := range strings.Split(stack, ",") {
		name := strings.Trim(strings.TrimSpace(part), `"'`)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// resolve returns the first registered family of the stack, or the fallback.
// A bold request falls back to the regular cut of the same family before leaving it.
func (r *FontRegistry) resolve(stack string, bold bool) (string, *registeredFont) {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range SplitFontStack(stack) {
		weights, ok := r.families[strings.ToLower(name)]
		if !ok {
			continue
		}
		if f, ok := weights[weightOf(bold)]; ok {
			return r.names[strings.ToLower(name)], f
		}
		if f, ok := weights[FontWeightRegular]; ok {
			return r.names[strings.ToLower(name)], f
		}
	}
	return FallbackFontFamily, r.fallback[weightOf(bold)]
}

// Face creates a new face for the first available family of stack. Faces are not
// safe for concurrent use, so every render owns its faces.
func (r *FontRegistry) Face(stack string, sizePx float64, bold bool) (font.Face, string, error) {
	family, f := r.resolve(stack, bold)
	face, err := opentype.NewFace(f.parsed, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, family, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, family, nil
}

// FontBytes returns the raw font program for the PDF path.
func (r *FontRegistry) FontBytes(stack string, bold bool) (string, []byte) {
	family, f := r.resolve(stack, bold)
	return family, f.data
}
