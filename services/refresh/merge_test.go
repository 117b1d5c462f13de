package refresh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

type fixedMultiplier int

func (f fixedMultiplier) Next() int { return int(f) }

// countingMultiplier records how many draws were made.
type countingMultiplier struct {
	value int
	calls int
}

func (c *countingMultiplier) Next() int {
	c.calls++
	return c.value
}

func TestMerge(t *testing.T) {
	now := time.Date(2025, 10, 22, 12, 0, 0, 0, time.UTC)
	rates := map[string]float64{"TST": 10, "ZRO": 0, "NGN": 1600.5, "TNY": 5e-324}

	tests := []struct {
		name      string
		src       models.SourceCountry
		keep      bool
		code      *string
		rate      *float64
		gdp       *float64
		wantDraws int
	}{
		{
			name:      "rate found",
			src:       models.SourceCountry{Name: "Testland", Population: 1000, Currencies: []string{"TST"}},
			keep:      true,
			code:      strPtr("TST"),
			rate:      floatPtr(10),
			gdp:       floatPtr(1000 * 1500 / 10.0),
			wantDraws: 1,
		},
		{
			name: "no currencies",
			src:  models.SourceCountry{Name: "Nowhere", Population: 50},
			keep: true,
		},
		{
			name: "blank first currency",
			src:  models.SourceCountry{Name: "Blank", Population: 50, Currencies: []string{" ", "TST"}},
			keep: true,
		},
		{
			name: "code without rate",
			src:  models.SourceCountry{Name: "Unrated", Population: 50, Currencies: []string{"XYZ"}},
			keep: true,
			code: strPtr("XYZ"),
		},
		{
			name:      "zero rate",
			src:       models.SourceCountry{Name: "Zeroland", Population: 50, Currencies: []string{"ZRO"}},
			keep:      true,
			code:      strPtr("ZRO"),
			rate:      floatPtr(0),
			wantDraws: 1,
		},
		{
			name:      "overflowing gdp left absent",
			src:       models.SourceCountry{Name: "Tinyrate", Population: 1000, Currencies: []string{"TNY"}},
			keep:      true,
			code:      strPtr("TNY"),
			rate:      floatPtr(5e-324),
			wantDraws: 1,
		},
		{
			name:      "only first currency used",
			src:       models.SourceCountry{Name: "Multi", Population: 10, Currencies: []string{"NGN", "TST"}},
			keep:      true,
			code:      strPtr("NGN"),
			rate:      floatPtr(1600.5),
			gdp:       floatPtr(10 * 1500 / 1600.5),
			wantDraws: 1,
		},
		{
			name: "zero population",
			src:  models.SourceCountry{Name: "Empty", Population: 0, Currencies: []string{"TST"}},
		},
		{
			name: "negative population",
			src:  models.SourceCountry{Name: "Negative", Population: -3, Currencies: []string{"TST"}},
		},
		{
			name: "blank name",
			src:  models.SourceCountry{Population: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mult := &countingMultiplier{value: 1500}
			got, ok := Merge(tt.src, rates, mult, now)

			assert.Equal(t, tt.keep, ok)
			assert.Equal(t, tt.wantDraws, mult.calls)
			if !tt.keep {
				return
			}
			assert.Equal(t, tt.src.Name, got.Name)
			assert.Equal(t, tt.code, got.CurrencyCode)
			assert.Equal(t, tt.rate, got.ExchangeRate)
			if tt.gdp == nil {
				assert.Nil(t, got.EstimatedGDP)
			} else {
				require.NotNil(t, got.EstimatedGDP)
				assert.InDelta(t, *tt.gdp, *got.EstimatedGDP, 1e-9)
			}
			assert.Equal(t, now, got.LastRefreshedAt)
		})
	}
}

func TestMerge_EmptyOptionalFieldsAreNull(t *testing.T) {
	got, ok := Merge(models.SourceCountry{Name: "Bare", Population: 1}, nil, fixedMultiplier(1000), time.Now())
	require.True(t, ok)

	assert.Nil(t, got.Capital)
	assert.Nil(t, got.Region)
	assert.Nil(t, got.FlagURL)
}

func TestMerge_GDPPresentIffRateNonZero(t *testing.T) {
	rates := map[string]float64{"AAA": 0.5, "BBB": 0, "CCC": 3000}
	mult := NewRandomMultiplier(7)

	for _, code := range []string{"AAA", "BBB", "CCC", "DDD", ""} {
		src := models.SourceCountry{Name: "C" + code, Population: 12345, Currencies: []string{code}}
		got, ok := Merge(src, rates, mult, time.Now())
		require.True(t, ok)

		hasRate := got.ExchangeRate != nil && *got.ExchangeRate != 0
		assert.Equal(t, hasRate, got.EstimatedGDP != nil, "code %q", code)
		if got.EstimatedGDP != nil {
			assert.GreaterOrEqual(t, *got.EstimatedGDP, 0.0)
		}
	}
}

func TestRandomMultiplier_Range(t *testing.T) {
	m := NewRandomMultiplier(42)
	seen := map[int]bool{}
	for i := 0; i < 20000; i++ {
		n := m.Next()
		require.GreaterOrEqual(t, n, MinMultiplier)
		require.LessOrEqual(t, n, MaxMultiplier)
		seen[n] = true
	}
	assert.True(t, seen[MinMultiplier], "lower bound is inclusive")
	assert.True(t, seen[MaxMultiplier], "upper bound is inclusive")
}

func TestRandomMultiplier_SeedIsReproducible(t *testing.T) {
	a := NewRandomMultiplier(99)
	b := NewRandomMultiplier(99)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
