package country

import "encoding/json"

// CountriesAPIResponse is one element of the country source payload, e.g.
// https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies
//
// Population and currencies stay raw so a single odd record can be
// normalized or dropped without failing the whole payload.
type CountriesAPIResponse struct {
	Name       string          `json:"name"`
	Capital    string          `json:"capital"`
	Region     string          `json:"region"`
	Population json.RawMessage `json:"population"`
	Flag       string          `json:"flag"`
	Currencies json.RawMessage `json:"currencies"`
}

type currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}
