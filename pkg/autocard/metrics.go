package autocard

/*
 * All layout positions are stored as percentages (0-100) of the content box and
 * are center-anchored. RenderMetrics maps them to pixels for one concrete canvas.
 */

// Millimetres per inch, used when converting preset pixel sizes to page sizes.
const MMPerInch = 25.4

type Preset struct {
	Name   string
	Width  int
	Height int
	// Physical page size in mm, used by the PDF export paths
	PageWidthMM  float64
	PageHeightMM float64
}

var (
	// CR80 card at 96 DPI, the size the editor and on-screen preview are designed against
	IDCardPreview = Preset{Name: "id-card-preview", Width: 323, Height: 204, PageWidthMM: 85.6, PageHeightMM: 53.98}
	// CR80 card at 300 DPI
	IDCardPrint = Preset{Name: "id-card-print", Width: 1011, Height: 637, PageWidthMM: 85.6, PageHeightMM: 53.98}
	// A4 landscape at 96 DPI
	CertificatePreview = Preset{Name: "certificate-preview", Width: 1123, Height: 794, PageWidthMM: 297, PageHeightMM: 210}
	// A4 landscape at 2x for export quality
	CertificateExport = Preset{Name: "certificate-export", Width: 2246, Height: 1588, PageWidthMM: 297, PageHeightMM: 210}
)

// Presets maps preset names to their definition, used by request binding.
var Presets = map[string]Preset{
	IDCardPreview.Name:      IDCardPreview,
	IDCardPrint.Name:        IDCardPrint,
	CertificatePreview.Name: CertificatePreview,
	CertificateExport.Name:  CertificateExport,
}

// DPI returns the horizontal resolution of the preset in dots per inch.
func (p Preset) DPI() float64 {
	if p.PageWidthMM <= 0 {
		return 96
	}
	return float64(p.Width) / (p.PageWidthMM / MMPerInch)
}

type MetricsInput struct {
	TotalWidth   float64
	TotalHeight  float64
	Padding      float64
	DesignWidth  float64
	DesignHeight float64
}

// RenderMetrics is derived per render and never stored.
type RenderMetrics struct {
	totalWidth    float64
	totalHeight   float64
	padding       float64
	contentWidth  float64
	contentHeight float64
	designWidth   float64
	designHeight  float64
}

func NewRenderMetrics(in MetricsInput) RenderMetrics {
	designWidth, designHeight := in.DesignWidth, in.DesignHeight
	if designWidth <= 0 {
		designWidth = float64(IDCardPreview.Width)
	}
	if designHeight <= 0 {
		designHeight = float64(IDCardPreview.Height)
	}

	totalWidth, totalHeight := in.TotalWidth, in.TotalHeight
	if totalWidth <= 0 {
		totalWidth = designWidth
	}
	if totalHeight <= 0 {
		totalHeight = designHeight
	}

	padding := max(in.Padding, 0)

	return RenderMetrics{
		totalWidth:    totalWidth,
		totalHeight:   totalHeight,
		padding:       padding,
		contentWidth:  max(totalWidth-2*padding, 1),
		contentHeight: max(totalHeight-2*padding, 1),
		designWidth:   designWidth,
		designHeight:  designHeight,
	}
}

// MetricsForPreset maps the preset canvas against the given design reference size.
func MetricsForPreset(p Preset, design Preset, padding float64) RenderMetrics {
	return NewRenderMetrics(MetricsInput{
		TotalWidth:   float64(p.Width),
		TotalHeight:  float64(p.Height),
		Padding:      padding,
		DesignWidth:  float64(design.Width),
		DesignHeight: float64(design.Height),
	})
}

func (m RenderMetrics) TotalWidth() float64    { return m.totalWidth }
func (m RenderMetrics) TotalHeight() float64   { return m.totalHeight }
func (m RenderMetrics) Padding() float64       { return m.padding }
func (m RenderMetrics) ContentWidth() float64  { return m.contentWidth }
func (m RenderMetrics) ContentHeight() float64 { return m.contentHeight }
func (m RenderMetrics) DesignWidth() float64   { return m.designWidth }
func (m RenderMetrics) DesignHeight() float64  { return m.designHeight }

func (m RenderMetrics) PctToX(p float64) float64 {
	return m.padding + (p/100)*m.contentWidth
}

func (m RenderMetrics) PctToY(p float64) float64 {
	return m.padding + (p/100)*m.contentHeight
}

// XToPct is not clamped, callers clamp with ClampPct.
func (m RenderMetrics) XToPct(px float64) float64 {
	return (px - m.padding) / m.contentWidth * 100
}

func (m RenderMetrics) YToPct(px float64) float64 {
	return (px - m.padding) / m.contentHeight * 100
}

func (m RenderMetrics) PctToWidth(p float64) float64 {
	return (p / 100) * m.contentWidth
}

func (m RenderMetrics) PctToHeight(p float64) float64 {
	return (p / 100) * m.contentHeight
}

// Pixel deltas (pointer movement) to percentage deltas.
func (m RenderMetrics) DXToPct(dx float64) float64 {
	return dx / m.contentWidth * 100
}

func (m RenderMetrics) DYToPct(dy float64) float64 {
	return dy / m.contentHeight * 100
}

// FontScale makes font sizes authored against the design reference render proportionally.
func (m RenderMetrics) FontScale() float64 {
	return m.totalWidth / m.designWidth
}

func ClampPct(v float64) float64 {
	return min(max(v, 0), 100)
}
