package checkoutserver

import "time"

type ProductStock struct {
	Name string `json:"name,omitempty"`

	UnitPrice string `json:"unitPrice"`

	Currency string `json:"currency"`

	TotalStock int64 `json:"totalStock"`

	ReorderPoint int64 `json:"reorderPoint,omitempty"`

	Categories []string `json:"categories,omitempty"`
}

type Product struct {
	Id int64 `json:"id"`

	Name string `json:"name,omitempty"`

	UnitPrice string `json:"unitPrice"`

	Currency string `json:"currency"`

	Categories []string `json:"categories,omitempty"`

	TotalStock int64 `json:"totalStock"`

	Reserved int64 `json:"reserved"`

	Available int64 `json:"available"`

	ReorderPoint int64 `json:"reorderPoint"`

	NeedsReorder bool `json:"needsReorder"`

	UpdatedAt time.Time `json:"updatedAt"`
}

type ReservationRequest struct {
	ProductId int64 `json:"productId"`

	Quantity int64 `json:"quantity"`

	RequesterId string `json:"requesterId"`
}

type Reservation struct {
	Id string `json:"id"`

	ProductId int64 `json:"productId"`

	Quantity int64 `json:"quantity"`

	RequesterId string `json:"requesterId"`

	// active, confirmed or cancelled
	Status string `json:"status"`

	CreatedAt time.Time `json:"createdAt"`

	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type ReleaseResult struct {
	Released bool `json:"released"`
}

type Availability struct {
	ProductId int64 `json:"productId"`

	Total int64 `json:"total"`

	Reserved int64 `json:"reserved"`

	Available int64 `json:"available"`

	ReorderPoint int64 `json:"reorderPoint"`

	NeedsReorder bool `json:"needsReorder"`
}

type ExpireRequest struct {
	// Cutoff for the sweep; defaults to the server clock and may not be later than it
	Now *time.Time `json:"now,omitempty"`
}

type ExpiryReport struct {
	Scanned int `json:"scanned"`

	Expired int `json:"expired"`

	Skipped int `json:"skipped"`

	Failed int `json:"failed"`

	Products int `json:"products"`
}
