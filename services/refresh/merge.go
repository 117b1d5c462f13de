package refresh

import (
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

const (
	MinMultiplier = 1000
	MaxMultiplier = 2000
)

// Multiplier yields the GDP multiplier for one record.
type Multiplier interface {
	Next() int
}

// RandomMultiplier draws uniformly from [MinMultiplier, MaxMultiplier].
// It is safe for concurrent use and reproducible for a given seed.
type RandomMultiplier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomMultiplier(seed uint64) *RandomMultiplier {
	return &RandomMultiplier{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (m *RandomMultiplier) Next() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MinMultiplier + m.rng.IntN(MaxMultiplier-MinMultiplier+1)
}

// Merge derives the stored record from a source country and the rate table.
// It returns false when the record must be dropped (blank name or
// non-positive population).
//
// A multiplier is drawn only when a rate is found, so the estimated GDP of
// the same country differs between refreshes.
func Merge(src models.SourceCountry, rates map[string]float64, mult Multiplier, refreshedAt time.Time) (models.Country, bool) {
	if src.Name == "" || !(src.Population > 0) {
		return models.Country{}, false
	}

	record := models.Country{
		Name:            src.Name,
		Capital:         optionalString(src.Capital),
		Region:          optionalString(src.Region),
		Population:      src.Population,
		FlagURL:         optionalString(src.Flag),
		LastRefreshedAt: refreshedAt,
	}

	if len(src.Currencies) == 0 {
		return record, true
	}
	code := strings.TrimSpace(src.Currencies[0])
	if code == "" {
		return record, true
	}
	record.CurrencyCode = &code

	rate, ok := rates[code]
	if !ok {
		return record, true
	}
	record.ExchangeRate = &rate

	m := mult.Next()
	if rate != 0 {
		// a denormal rate overflows; JSON cannot carry Inf
		gdp := src.Population * float64(m) / rate
		if !math.IsInf(gdp, 0) && !math.IsNaN(gdp) {
			record.EstimatedGDP = &gdp
		}
	}
	return record, true
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
