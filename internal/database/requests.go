package database

import (
	"context"
	"fmt"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const requestColumns = `id, description, requestor_id, created_at`

func (db *DB) CreateRequest(ctx context.Context, request *models.ItemRequest) error {
	request.Created = models.Normalize(request.Created)
	id, err := db.insertReturningID(ctx,
		`INSERT INTO requests (description, requestor_id, created_at) VALUES (?, ?, ?) RETURNING id`,
		request.Description, request.RequestorID, request.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.ID = id
	return nil
}

func (db *DB) GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error) {
	var request models.ItemRequest
	err := db.GetContext(ctx, &request, db.Rebind(`SELECT `+requestColumns+` FROM requests WHERE id = ?`), id)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("request with id %d not found", id)
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	request.Created = request.Created.UTC()
	return &request, nil
}

// GetRequestsByRequestor lists a user's own requests, newest first.
func (db *DB) GetRequestsByRequestor(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error) {
	return db.selectRequests(ctx, `requestor_id = ?`, requestorID)
}

// GetRequestsExcludingRequestor lists everybody else's requests, newest first.
func (db *DB) GetRequestsExcludingRequestor(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error) {
	return db.selectRequests(ctx, `requestor_id <> ?`, requestorID)
}

func (db *DB) selectRequests(ctx context.Context, where string, args ...interface{}) ([]*models.ItemRequest, error) {
	requests := []*models.ItemRequest{}
	query := `SELECT ` + requestColumns + ` FROM requests WHERE ` + where + ` ORDER BY created_at DESC, id DESC`
	if err := db.SelectContext(ctx, &requests, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	for _, r := range requests {
		r.Created = r.Created.UTC()
	}
	return requests, nil
}
