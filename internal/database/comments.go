package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.Created = models.Normalize(comment.Created)
	id, err := db.insertReturningID(ctx,
		`INSERT INTO comments (text, item_id, author_id, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		comment.Text, comment.ItemID, comment.AuthorID, comment.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	comment.ID = id
	return nil
}

// GetCommentsByItem returns the item's comments in posting order with the
// author name resolved.
func (db *DB) GetCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := db.SelectContext(ctx, &comments, db.Rebind(`
        SELECT c.id, c.text, c.item_id, c.author_id, u.name AS author_name, c.created_at
        FROM comments c
        JOIN users u ON u.id = c.author_id
        WHERE c.item_id = ?
        ORDER BY c.created_at, c.id`), itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	for _, c := range comments {
		c.Created = c.Created.UTC()
	}
	return comments, nil
}
