package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/api"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

var ErrNotPNG = errors.New("renderer did not return a PNG image")

// QuickChart renders through the QuickChart HTTP API
// (https://quickchart.io/documentation/#post-endpoint).
type QuickChart struct {
	URL    string
	Client *api.Client
	Width  int
	Height int
}

func NewQuickChart(url string, client *api.Client) *QuickChart {
	return &QuickChart{URL: url, Client: client, Width: 800, Height: 500}
}

type quickChartRequest struct {
	Chart           quickChartConfig `json:"chart"`
	Width           int              `json:"width"`
	Height          int              `json:"height"`
	Format          string           `json:"format"`
	BackgroundColor string           `json:"backgroundColor"`
}

type quickChartConfig struct {
	Type    string            `json:"type"`
	Data    quickChartData    `json:"data"`
	Options quickChartOptions `json:"options"`
}

type quickChartData struct {
	Labels   []string            `json:"labels"`
	Datasets []quickChartDataset `json:"datasets"`
}

type quickChartDataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

type quickChartOptions struct {
	Title  quickChartTitle  `json:"title"`
	Legend quickChartLegend `json:"legend"`
}

type quickChartTitle struct {
	Display  bool   `json:"display"`
	Text     string `json:"text"`
	FontSize int    `json:"fontSize"`
}

type quickChartLegend struct {
	Display bool `json:"display"`
}

func (q *QuickChart) request(s models.Summary) quickChartRequest {
	d := newChartData(s)
	return quickChartRequest{
		Chart: quickChartConfig{
			Type: "bar",
			Data: quickChartData{
				Labels:   d.Labels,
				Datasets: []quickChartDataset{{Label: d.Label, Data: d.Values}},
			},
			Options: quickChartOptions{
				Title:  quickChartTitle{Display: true, Text: d.Title, FontSize: 18},
				Legend: quickChartLegend{Display: false},
			},
		},
		Width:           q.Width,
		Height:          q.Height,
		Format:          "png",
		BackgroundColor: "white",
	}
}

func (q *QuickChart) Render(ctx context.Context, s models.Summary) ([]byte, error) {
	body, err := json.Marshal(q.request(s))
	if err != nil {
		return nil, fmt.Errorf("failed to encode chart config: %w", err)
	}

	img, err := q.Client.Post(ctx, q.URL, body, map[string]string{"Accept": "image/png"})
	if err != nil {
		return nil, fmt.Errorf("quickchart: %w", err)
	}
	if !bytes.HasPrefix(img, pngSignature) {
		return nil, ErrNotPNG
	}
	return img, nil
}
