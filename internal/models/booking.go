package models

import "time"

type Booking struct {
	ID       int64         `db:"id" json:"id"`
	ItemID   int64         `db:"item_id" json:"item_id"`
	BookerID int64         `db:"booker_id" json:"booker_id"`
	Start    time.Time     `db:"start_date" json:"start"`
	End      time.Time     `db:"end_date" json:"end"`
	Status   BookingStatus `db:"status" json:"status"`

	// Joined columns, filled on reads.
	ItemName    string `db:"item_name" json:"item_name"`
	ItemOwnerID int64  `db:"item_owner_id" json:"item_owner_id"`
	BookerName  string `db:"booker_name" json:"booker_name"`
}

// IsVisibleTo reports whether the user is the booker or the item owner.
func (b *Booking) IsVisibleTo(userID int64) bool {
	return b.BookerID == userID || b.ItemOwnerID == userID
}
