package events

import (
	"encoding/json"
	"fmt"

	"shareit/internal/metrics"

	"github.com/rs/zerolog"
)

// RegisterDefaultSubscribers wires the audit log and the business counters
// onto the bus.
func RegisterDefaultSubscribers(bus *EventBus, logger *zerolog.Logger) {
	for _, eventType := range []string{EventBookingCreated, EventBookingApproved, EventBookingRejected} {
		bus.Subscribe(eventType, logBooking(logger))
		bus.Subscribe(eventType, countBooking)
	}
	bus.Subscribe(EventCommentAdded, logComment(logger))
	bus.Subscribe(EventCommentAdded, func(*Event) error {
		metrics.IncCommentAdded()
		return nil
	})
}

func logBooking(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		var p BookingEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", event.Type, err)
		}
		logger.Info().
			Str("event", event.Type).
			Int64("booking_id", p.BookingID).
			Int64("item_id", p.ItemID).
			Int64("booker_id", p.BookerID).
			Str("status", p.Status).
			Msg("booking event")
		return nil
	}
}

func countBooking(event *Event) error {
	var p BookingEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	metrics.IncBookingTransition(p.Status)
	return nil
}

func logComment(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		var p CommentEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", event.Type, err)
		}
		logger.Info().
			Str("event", event.Type).
			Int64("comment_id", p.CommentID).
			Int64("item_id", p.ItemID).
			Int64("author_id", p.AuthorID).
			Msg("comment event")
		return nil
	}
}
