package country

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/api"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/config"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

var ErrNotArray = errors.New("country payload is not a JSON array")

type Service struct {
	URL    string
	Client *api.Client
}

func NewService(cfg *config.Config, client *api.Client) *Service {
	return &Service{
		URL:    cfg.CountriesAPIURL,
		Client: client,
	}
}

func (s *Service) Configured() bool {
	return s.URL != ""
}

func (s *Service) FetchData(ctx context.Context) ([]byte, error) {
	return s.Client.Do(ctx, s.URL, nil)
}

// ParseData decodes the country payload. The payload as a whole must be a
// JSON array; individual elements that are not objects or have unusable
// fields are skipped.
func (s *Service) ParseData(data []byte) ([]models.SourceCountry, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	if raw == nil {
		return nil, ErrNotArray
	}

	countries := make([]models.SourceCountry, 0, len(raw))
	for i, item := range raw {
		var r CountriesAPIResponse
		if err := json.Unmarshal(item, &r); err != nil {
			logger.Debug("[countries] skipping record %d: %v", i, err)
			continue
		}

		countries = append(countries, models.SourceCountry{
			Name:       strings.TrimSpace(r.Name),
			Capital:    r.Capital,
			Region:     r.Region,
			Population: parsePopulation(r.Population),
			Flag:       r.Flag,
			Currencies: parseCurrencies(r.Currencies),
		})
	}

	return countries, nil
}

// parsePopulation returns the numeric population, or 0 when the value is
// missing or not a JSON number.
func parsePopulation(raw json.RawMessage) float64 {
	var n float64
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil {
		return 0
	}
	return n
}

// parseCurrencies returns the currency codes in source order. Anything
// other than an array of objects yields no currencies.
func parseCurrencies(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []currency
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}

	codes := make([]string, 0, len(list))
	for _, c := range list {
		codes = append(codes, strings.TrimSpace(c.Code))
	}
	return codes
}
