package models

import "time"

type Item struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	Available   bool   `db:"available" json:"available"`
	OwnerID     int64  `db:"owner_id" json:"owner_id"`
	// RequestID is the item request this item answers, if any. It is not
	// checked against existing requests.
	RequestID *int64 `db:"request_id" json:"request_id,omitempty"`
}

// ItemPatch carries a partial update; nil fields are left untouched.
type ItemPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

// Apply copies the non-nil fields onto item.
func (p ItemPatch) Apply(item *Item) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
}

// ItemShort is the projection attached to item requests.
type ItemShort struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	OwnerID   int64  `db:"owner_id" json:"owner_id"`
	RequestID int64  `db:"request_id" json:"-"`
}

// ItemOwnerView is an item enriched with the start of the closest booking
// on each side of now and the item's comments.
type ItemOwnerView struct {
	Item
	LastBooking *time.Time `json:"last_booking"`
	NextBooking *time.Time `json:"next_booking"`
	Comments    []*Comment `json:"comments"`
}
