package summary

import (
	"context"
	"fmt"
	"math"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

const (
	chartLabel      = "Top 5 Countries by Estimated GDP"
	timestampLayout = "2006-01-02 15:04:05 MST"
)

// Renderer turns a summary into PNG bytes.
type Renderer interface {
	Render(ctx context.Context, summary models.Summary) ([]byte, error)
}

// chartData is the renderer-independent content of the summary chart.
type chartData struct {
	Title  string
	Label  string
	Labels []string
	Values []float64
}

func newChartData(s models.Summary) chartData {
	d := chartData{
		Title:  fmt.Sprintf("Total: %d | Refreshed: %s", s.Total, s.Timestamp.UTC().Format(timestampLayout)),
		Label:  chartLabel,
		Labels: make([]string, 0, len(s.TopCountries)),
		Values: make([]float64, 0, len(s.TopCountries)),
	}
	for _, c := range s.TopCountries {
		d.Labels = append(d.Labels, c.Name)
		d.Values = append(d.Values, math.Round(c.EstimatedGDP*100)/100)
	}
	return d
}
