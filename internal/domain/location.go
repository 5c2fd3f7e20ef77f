package domain

import "errors"

// LocationRef points the order at a route endpoint: either an already
// persisted location row or an inline payload to be persisted on demand.
// Exactly one of the two must be set.
type LocationRef struct {
	ID     *int64         `json:"id,omitempty"`
	Inline *LocationAttrs `json:"inline,omitempty"`
}

func (r LocationRef) Validate() error {
	if r.ID == nil && r.Inline == nil {
		return errors.New("location ref is empty")
	}

	if r.ID != nil && r.Inline != nil {
		return errors.New("location ref has both id and inline attributes")
	}

	return nil
}

// Resolved reports whether the ref already carries a persisted location id.
func (r LocationRef) Resolved() bool {
	return r.ID != nil
}

// LocationAttrs is the inline shape of an order_locations row.
// JSON tags match the column names consumed by create_order_and_vehicles.
type LocationAttrs struct {
	BusinessName       string   `json:"business_name,omitempty"`
	LocationType       string   `json:"location_type,omitempty"`
	Zip                string   `json:"zip,omitempty"`
	Address            string   `json:"address,omitempty"`
	City               string   `json:"city,omitempty"`
	State              string   `json:"state,omitempty"`
	ContactName        string   `json:"contact_name,omitempty"`
	ContactType        string   `json:"contact_type,omitempty"`
	ContactPhone       string   `json:"contact_phone,omitempty"`
	ContactSecondPhone string   `json:"contact_second_phone,omitempty"`
	Lat                *float64 `json:"lat,omitempty"`
	Lng                *float64 `json:"lng,omitempty"`
	IsTerminal         bool     `json:"is_terminal"`
	IsDefaultTerminal  bool     `json:"is_default_terminal"`
	CreatedBy          string   `json:"created_by,omitempty"`
}

// WithoutCoordinates drops lat/lng, the edit path persists inline
// locations without geo data.
func (a LocationAttrs) WithoutCoordinates() LocationAttrs {
	c := a
	c.Lat = nil
	c.Lng = nil
	return c
}

// Location is a persisted order_locations row.
type Location struct {
	ID int64
	LocationAttrs
}
