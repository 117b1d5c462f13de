package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/api"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/config"
)

var ErrInvalidRates = errors.New("exchange-rate payload must contain a non-empty rates object of numbers")

// RatesAPIResponse matches https://open.er-api.com/v6/latest/USD and similar
// providers: rates are relative to the provider's base currency.
type RatesAPIResponse struct {
	Result   string              `json:"result"`
	BaseCode string              `json:"base_code"`
	Rates    map[string]*float64 `json:"rates"`
}

type Service struct {
	URL    string
	Client *api.Client
}

func NewService(cfg *config.Config, client *api.Client) *Service {
	return &Service{
		URL:    cfg.ExchangeRatesAPIURL,
		Client: client,
	}
}

func (s *Service) Configured() bool {
	return s.URL != ""
}

func (s *Service) FetchData(ctx context.Context) ([]byte, error) {
	return s.Client.Do(ctx, s.URL, nil)
}

// ParseData returns the currency code → rate mapping. A null rate makes
// the whole payload invalid, like any other non-number.
func (s *Service) ParseData(data []byte) (map[string]float64, error) {
	var resp RatesAPIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRates, err)
	}
	if len(resp.Rates) == 0 {
		return nil, ErrInvalidRates
	}

	rates := make(map[string]float64, len(resp.Rates))
	for code, rate := range resp.Rates {
		if rate == nil {
			return nil, fmt.Errorf("%w: rate for %s is null", ErrInvalidRates, code)
		}
		rates[code] = *rate
	}
	return rates, nil
}
