package summary

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

// ChartStyle controls the layout of the locally rendered bar chart.
type ChartStyle struct {
	Width     int
	Height    int
	Padding   float64
	TitleSize float64
	LabelSize float64
	BarColor  [3]float64
}

// Local draws the summary chart in-process, for deployments without access
// to an external chart service.
type Local struct {
	style ChartStyle
}

func NewLocal() *Local {
	return &Local{
		style: ChartStyle{
			Width:     800,
			Height:    500,
			Padding:   40,
			TitleSize: 18,
			LabelSize: 12,
			BarColor:  [3]float64{0.21, 0.49, 0.82},
		},
	}
}

func (l *Local) Render(ctx context.Context, s models.Summary) ([]byte, error) {
	start := time.Now()
	defer func() {
		logger.WithFields(map[string]interface{}{
			"duration_ms": time.Since(start).Milliseconds(),
			"bars":        len(s.TopCountries),
		}).Debug("Summary chart rendered")
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := newChartData(s)
	st := l.style
	w, h := float64(st.Width), float64(st.Height)

	titleFace, err := loadFont(gobold.TTF, st.TitleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	labelFace, err := loadFont(goregular.TTF, st.LabelSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	dc := gg.NewContext(st.Width, st.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetFontFace(titleFace)
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored(d.Title, w/2, st.Padding, 0.5, 0.5)

	dc.SetFontFace(labelFace)
	dc.SetRGB(0.4, 0.4, 0.4)
	dc.DrawStringAnchored(d.Label, w/2, st.Padding+st.TitleSize+4, 0.5, 0.5)

	// plot area
	left := st.Padding
	right := w - st.Padding
	top := st.Padding*2 + st.TitleSize
	bottom := h - st.Padding*1.5

	dc.SetRGB(0.2, 0.2, 0.2)
	dc.SetLineWidth(1)
	dc.DrawLine(left, bottom, right, bottom)
	dc.Stroke()

	if len(d.Values) == 0 {
		dc.DrawStringAnchored("No countries with an estimated GDP", w/2, (top+bottom)/2, 0.5, 0.5)
		return encodePNG(dc)
	}

	peak := 0.0
	for _, v := range d.Values {
		if v > peak {
			peak = v
		}
	}

	slot := (right - left) / float64(len(d.Values))
	barWidth := slot * 0.6
	for i, v := range d.Values {
		barHeight := 0.0
		if peak > 0 {
			barHeight = (bottom - top) * v / peak
		}
		x := left + slot*float64(i) + (slot-barWidth)/2

		dc.SetRGB(st.BarColor[0], st.BarColor[1], st.BarColor[2])
		dc.DrawRectangle(x, bottom-barHeight, barWidth, barHeight)
		dc.Fill()

		dc.SetRGB(0.1, 0.1, 0.1)
		dc.DrawStringAnchored(formatShort(v), x+barWidth/2, bottom-barHeight-8, 0.5, 0)
		dc.DrawStringAnchored(truncate(d.Labels[i], 18), x+barWidth/2, bottom+st.LabelSize+4, 0.5, 0.5)
	}

	return encodePNG(dc)
}

func encodePNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// formatShort renders large values as 1.2K, 3.4M, 5.6B or 7.8T.
func formatShort(v float64) string {
	units := []struct {
		limit  float64
		suffix string
	}{
		{1e12, "T"},
		{1e9, "B"},
		{1e6, "M"},
		{1e3, "K"},
	}
	for _, u := range units {
		if v >= u.limit {
			return strconv.FormatFloat(v/u.limit, 'f', 1, 64) + u.suffix
		}
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
