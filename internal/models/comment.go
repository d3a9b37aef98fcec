package models

import "time"

type Comment struct {
	ID         int64     `db:"id" json:"id"`
	Text       string    `db:"text" json:"text"`
	ItemID     int64     `db:"item_id" json:"item_id"`
	AuthorID   int64     `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Created    time.Time `db:"created_at" json:"created"`
}
