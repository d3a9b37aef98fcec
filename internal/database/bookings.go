package database

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	id, err := db.insertReturningID(ctx,
		`INSERT INTO bookings (item_id, booker_id, start_date, end_date, status)
              VALUES (?, ?, ?, ?, ?) RETURNING id`,
		booking.ItemID,
		booking.BookerID,
		models.Normalize(booking.Start),
		models.Normalize(booking.End),
		string(booking.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID = id
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query, args, err := db.bookingsQuery().Where(goqu.I("b.id").Eq(id)).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build booking query: %w", err)
	}

	var booking models.Booking
	if err := db.GetContext(ctx, &booking, query, args...); err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("booking with id %d not found", id)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	changed, err := db.execAffecting(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if !changed {
		return domain.NewNotFoundError("booking with id %d not found", id)
	}
	return nil
}

func (db *DB) GetBookingsByBooker(ctx context.Context, bookerID int64, state models.BookingState, now time.Time) ([]*models.Booking, error) {
	return db.listBookings(ctx, goqu.I("b.booker_id").Eq(bookerID), state, now)
}

func (db *DB) GetBookingsByOwner(ctx context.Context, ownerID int64, state models.BookingState, now time.Time) ([]*models.Booking, error) {
	return db.listBookings(ctx, goqu.I("i.owner_id").Eq(ownerID), state, now)
}

// HasApprovedBookingStartedBefore reports whether the booker holds an
// approved booking on the item that started before now.
func (db *DB) HasApprovedBookingStartedBefore(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count, db.Rebind(`
        SELECT COUNT(*) FROM bookings
        WHERE booker_id = ? AND item_id = ? AND status = ? AND start_date < ?`),
		bookerID, itemID, string(models.StatusApproved), models.Normalize(now),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check past bookings: %w", err)
	}
	return count > 0, nil
}

func (db *DB) listBookings(ctx context.Context, who exp.Expression, state models.BookingState, now time.Time) ([]*models.Booking, error) {
	filter, err := stateFilter(state, models.Normalize(now))
	if err != nil {
		return nil, err
	}

	ds := db.bookingsQuery().Where(who)
	if filter != nil {
		ds = ds.Where(filter)
	}
	query, args, err := ds.Order(goqu.I("b.start_date").Desc(), goqu.I("b.id").Desc()).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build bookings query: %w", err)
	}

	bookings := []*models.Booking{}
	if err := db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) bookingsQuery() *goqu.SelectDataset {
	return db.dialect.
		From(goqu.T("bookings").As("b")).
		Join(goqu.T("items").As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("b.item_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("b.booker_id")))).
		Select(
			goqu.I("b.id").As("id"),
			goqu.I("b.item_id").As("item_id"),
			goqu.I("b.booker_id").As("booker_id"),
			goqu.I("b.start_date").As("start_date"),
			goqu.I("b.end_date").As("end_date"),
			goqu.I("b.status").As("status"),
			goqu.I("i.name").As("item_name"),
			goqu.I("i.owner_id").As("item_owner_id"),
			goqu.I("u.name").As("booker_name"),
		).
		Prepared(true)
}

// stateFilter translates a booking state into a predicate relative to now.
// ALL yields no predicate.
func stateFilter(state models.BookingState, now time.Time) (exp.Expression, error) {
	switch state {
	case models.StateAll, "":
		return nil, nil
	case models.StateCurrent:
		return goqu.And(
			goqu.I("b.start_date").Lte(now),
			goqu.I("b.end_date").Gte(now),
		), nil
	case models.StatePast:
		return goqu.I("b.end_date").Lt(now), nil
	case models.StateFuture:
		return goqu.I("b.start_date").Gt(now), nil
	case models.StateWaiting:
		return goqu.I("b.status").Eq(string(models.StatusWaiting)), nil
	case models.StateRejected:
		return goqu.I("b.status").Eq(string(models.StatusRejected)), nil
	default:
		return nil, domain.NewBadRequestError("Unknown state: %s", state)
	}
}
