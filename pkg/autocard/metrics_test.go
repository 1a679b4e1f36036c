package autocard

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRenderMetricsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   MetricsInput
	}{
		{"id card preview", MetricsInput{TotalWidth: 323, TotalHeight: 204, DesignWidth: 323, DesignHeight: 204}},
		{"id card print with padding", MetricsInput{TotalWidth: 1011, TotalHeight: 637, Padding: 12, DesignWidth: 323, DesignHeight: 204}},
		{"certificate export", MetricsInput{TotalWidth: 2246, TotalHeight: 1588, Padding: 40, DesignWidth: 1123, DesignHeight: 794}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewRenderMetrics(tt.in)
			for _, px := range []float64{0, 1, 17.5, 100, 161.5, 300} {
				if got := m.PctToX(m.XToPct(px)); math.Abs(got-px) > 1e-6 {
					t.Errorf("PctToX(XToPct(%v)) = %v", px, got)
				}
				if got := m.PctToY(m.YToPct(px)); math.Abs(got-px) > 1e-6 {
					t.Errorf("PctToY(YToPct(%v)) = %v", px, got)
				}
			}
		})
	}
}

func TestRenderMetricsCenterOfPreviewCard(t *testing.T) {
	m := MetricsForPreset(IDCardPreview, IDCardPreview, 0)

	if x := m.PctToX(50); !approx(x, 161.5) {
		t.Errorf("expected x 161.5, got %v", x)
	}
	if y := m.PctToY(40); !approx(y, 81.6) {
		t.Errorf("expected y 81.6, got %v", y)
	}
	if s := m.FontScale(); !approx(s, 1) {
		t.Errorf("expected font scale 1, got %v", s)
	}
}

func TestRenderMetricsPadding(t *testing.T) {
	m := NewRenderMetrics(MetricsInput{TotalWidth: 120, TotalHeight: 80, Padding: 10, DesignWidth: 120, DesignHeight: 80})

	if m.ContentWidth() != 100 || m.ContentHeight() != 60 {
		t.Fatalf("unexpected content box %vx%v", m.ContentWidth(), m.ContentHeight())
	}
	if x := m.PctToX(0); x != 10 {
		t.Errorf("expected left edge at padding, got %v", x)
	}
	if x := m.PctToX(100); x != 110 {
		t.Errorf("expected right edge at 110, got %v", x)
	}
	if w := m.PctToWidth(50); w != 50 {
		t.Errorf("sizes must ignore padding, got %v", w)
	}
}

func TestRenderMetricsFontScale(t *testing.T) {
	m := MetricsForPreset(IDCardPrint, IDCardPreview, 0)
	if s := m.FontScale(); !approx(s, 1011.0/323.0) {
		t.Errorf("unexpected font scale %v", s)
	}
}

func TestRenderMetricsFallbacks(t *testing.T) {
	m := NewRenderMetrics(MetricsInput{})
	if m.TotalWidth() != 323 || m.TotalHeight() != 204 {
		t.Errorf("expected preview card fallback, got %vx%v", m.TotalWidth(), m.TotalHeight())
	}

	m = NewRenderMetrics(MetricsInput{Padding: -5, DesignWidth: 1123, DesignHeight: 794})
	if m.TotalWidth() != 1123 || m.Padding() != 0 {
		t.Errorf("expected design size and zero padding, got %v and %v", m.TotalWidth(), m.Padding())
	}
}

func TestClampPct(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-3, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{130, 100},
	}
	for _, tt := range tests {
		if got := ClampPct(tt.in); got != tt.want {
			t.Errorf("ClampPct(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPresetDPI(t *testing.T) {
	if dpi := IDCardPrint.DPI(); math.Abs(dpi-300) > 1 {
		t.Errorf("expected print preset near 300 DPI, got %v", dpi)
	}
	if dpi := IDCardPreview.DPI(); math.Abs(dpi-96) > 1 {
		t.Errorf("expected preview preset near 96 DPI, got %v", dpi)
	}
}
