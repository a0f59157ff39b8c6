package models

// Station is an ephemeral search result from the places provider. It is never
// persisted; price entries reference it by the provider's opaque id.
type Station struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Prices carries the ledger entries merged into the search response.
	Prices []PriceEntry `json:"prices,omitempty"`
}

// Coordinate is a latitude/longitude pair used for nearby searches.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
