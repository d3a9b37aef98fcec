package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/jmoiron/sqlx"
)

const itemColumns = `id, name, description, available, owner_id, request_id`

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	id, err := db.insertReturningID(ctx,
		`INSERT INTO items (name, description, available, owner_id, request_id)
              VALUES (?, ?, ?, ?, ?) RETURNING id`,
		item.Name, item.Description, item.Available, item.OwnerID, item.RequestID,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	item.ID = id
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := db.GetContext(ctx, &item, db.Rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("item with id %d not found", id)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	changed, err := db.execAffecting(ctx,
		`UPDATE items SET name = ?, description = ?, available = ? WHERE id = ?`,
		item.Name, item.Description, item.Available, item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if !changed {
		return domain.NewNotFoundError("item with id %d not found", item.ID)
	}
	return nil
}

func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	changed, err := db.execAffecting(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if !changed {
		return domain.NewNotFoundError("item with id %d not found", id)
	}
	return nil
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error) {
	items := []*models.Item{}
	err := db.SelectContext(ctx, &items,
		db.Rebind(`SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY id`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items by owner: %w", err)
	}
	return items, nil
}

// SearchAvailableItems matches text case-insensitively against name or
// description of available items.
func (db *DB) SearchAvailableItems(ctx context.Context, text string) ([]*models.Item, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	lower := db.lowerFunc()
	items := []*models.Item{}
	err := db.SelectContext(ctx, &items, db.Rebind(`
        SELECT `+itemColumns+` FROM items
        WHERE available = ?
          AND (`+lower+`(name) LIKE ? ESCAPE '\' OR `+lower+`(description) LIKE ? ESCAPE '\')
        ORDER BY id`),
		true, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	return items, nil
}

func (db *DB) GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) ([]*models.ItemShort, error) {
	items := []*models.ItemShort{}
	if len(requestIDs) == 0 {
		return items, nil
	}

	query, args, err := sqlx.In(
		`SELECT id, name, owner_id, request_id FROM items WHERE request_id IN (?) ORDER BY id`, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build items by request query: %w", err)
	}
	if err := db.SelectContext(ctx, &items, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get items by request: %w", err)
	}
	return items, nil
}

// GetAdjacentBookingStarts returns the start of the latest booking that has
// already begun and of the earliest one still ahead. Rejected bookings are
// ignored.
func (db *DB) GetAdjacentBookingStarts(ctx context.Context, itemID int64, now time.Time) (*time.Time, *time.Time, error) {
	now = models.Normalize(now)

	var last []time.Time
	err := db.SelectContext(ctx, &last, db.Rebind(`
        SELECT start_date FROM bookings
        WHERE item_id = ? AND status <> ? AND start_date <= ?
        ORDER BY start_date DESC LIMIT 1`),
		itemID, string(models.StatusRejected), now,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get last booking: %w", err)
	}

	var next []time.Time
	err = db.SelectContext(ctx, &next, db.Rebind(`
        SELECT start_date FROM bookings
        WHERE item_id = ? AND status <> ? AND start_date > ?
        ORDER BY start_date ASC LIMIT 1`),
		itemID, string(models.StatusRejected), now,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get next booking: %w", err)
	}

	return firstTime(last), firstTime(next), nil
}

func firstTime(ts []time.Time) *time.Time {
	if len(ts) == 0 {
		return nil
	}
	t := ts[0].UTC()
	return &t
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
