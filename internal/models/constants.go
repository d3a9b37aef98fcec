package models

import (
	"fmt"
	"strconv"
	"strings"
)

type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

// BookingState selects bookings relative to the evaluation instant.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// ParseBookingState maps the query parameter to a state. An empty value means ALL.
func ParseBookingState(raw string) (BookingState, error) {
	switch s := BookingState(raw); s {
	case "":
		return StateAll, nil
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return s, nil
	default:
		return "", fmt.Errorf("Unknown state: %s", raw)
	}
}

// HeaderSharerUserID identifies the acting user on every item, booking and
// request endpoint.
const HeaderSharerUserID = "X-Sharer-User-Id"

// RateLimitKey buckets a call by acting user when the header carries a valid
// id, and by client address otherwise, so malformed headers share one budget.
func RateLimitKey(sharerHeader, clientIP string) string {
	id, err := strconv.ParseInt(strings.TrimSpace(sharerHeader), 10, 64)
	if err != nil || id <= 0 {
		return "ip:" + clientIP
	}
	return "user:" + strconv.FormatInt(id, 10)
}
