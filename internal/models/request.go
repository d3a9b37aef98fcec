package models

import "time"

type ItemRequest struct {
	ID          int64        `db:"id" json:"id"`
	Description string       `db:"description" json:"description"`
	RequestorID int64        `db:"requestor_id" json:"requestor_id"`
	Created     time.Time    `db:"created_at" json:"created"`
	Items       []*ItemShort `db:"-" json:"items"`
}

// MaxRequestDescription is the longest description accepted for a request.
const MaxRequestDescription = 512
