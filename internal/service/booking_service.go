package service

import (
	"context"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/export"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		logger:   nopIfNil(logger),
		now:      time.Now,
	}
}

// CreateBooking stores a WAITING booking of an available item. Two
// concurrent calls for the same item may both succeed.
func (s *BookingService) CreateBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, bookerID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if !start.Before(end) {
		return nil, domain.NewValidationError("booking end must be after booking start")
	}
	if !item.Available {
		return nil, domain.NewUnavailableError("item %d is not available for booking", itemID)
	}

	booking := &models.Booking{
		ItemID:   itemID,
		BookerID: bookerID,
		Start:    start,
		End:      end,
		Status:   models.StatusWaiting,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	created, err := s.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, created, bookerID)
	return created, nil
}

// Approve lets the item owner move a booking to APPROVED or REJECTED.
// An already decided booking can be decided again.
func (s *BookingService) Approve(ctx context.Context, requesterID, bookingID int64, approved bool) (*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, requesterID); err != nil {
		return nil, err
	}
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ItemOwnerID != requesterID {
		return nil, domain.NewForbiddenError("user %d is not the owner of item %d", requesterID, booking.ItemID)
	}

	status, eventType := models.StatusRejected, events.EventBookingRejected
	if approved {
		status, eventType = models.StatusApproved, events.EventBookingApproved
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		return nil, err
	}
	booking.Status = status

	s.publishEvent(eventType, booking, requesterID)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, requesterID, bookingID int64) (*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, requesterID); err != nil {
		return nil, err
	}
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsVisibleTo(requesterID) {
		return nil, domain.NewForbiddenError("user %d may not view booking %d", requesterID, bookingID)
	}
	return booking, nil
}

func (s *BookingService) ListForBooker(ctx context.Context, bookerID int64, state models.BookingState) ([]*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, bookerID); err != nil {
		return nil, err
	}
	return s.repo.GetBookingsByBooker(ctx, bookerID, state, s.now())
}

func (s *BookingService) ListForOwner(ctx context.Context, ownerID int64, state models.BookingState) ([]*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.repo.GetBookingsByOwner(ctx, ownerID, state, s.now())
}

// ExportForOwner renders ListForOwner as a spreadsheet.
func (s *BookingService) ExportForOwner(ctx context.Context, ownerID int64, state models.BookingState) ([]byte, error) {
	bookings, err := s.ListForOwner(ctx, ownerID, state)
	if err != nil {
		return nil, err
	}
	return export.BookingsWorkbook(bookings)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		BookerID:    booking.BookerID,
		BookerName:  booking.BookerName,
		ItemID:      booking.ItemID,
		ItemName:    booking.ItemName,
		OwnerID:     booking.ItemOwnerID,
		Status:      string(booking.Status),
		Start:       booking.Start,
		End:         booking.End,
		ChangedByID: changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
