package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

// Repository is the relational store as seen by the services.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id int64) error
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error)
	SearchAvailableItems(ctx context.Context, text string) ([]*models.Item, error)
	GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) ([]*models.ItemShort, error)
	GetAdjacentBookingStarts(ctx context.Context, itemID int64, now time.Time) (last, next *time.Time, err error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error
	GetBookingsByBooker(ctx context.Context, bookerID int64, state models.BookingState, now time.Time) ([]*models.Booking, error)
	GetBookingsByOwner(ctx context.Context, ownerID int64, state models.BookingState, now time.Time) ([]*models.Booking, error)
	HasApprovedBookingStartedBefore(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)

	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetRequestsByRequestor(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error)
	GetRequestsExcludingRequestor(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error)
}

// RateLimitStore counts requests per key in fixed windows.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type UserService interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type ItemService interface {
	CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error)
	PatchItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error)
	GetItem(ctx context.Context, itemID int64) (*models.Item, error)
	GetOwnerView(ctx context.Context, itemID int64) (*models.ItemOwnerView, error)
	ListForOwner(ctx context.Context, ownerID int64) ([]*models.ItemOwnerView, error)
	Search(ctx context.Context, text string) ([]*models.Item, error)
	DeleteItem(ctx context.Context, ownerID, itemID int64) error
	AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.Comment, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.Booking, error)
	Approve(ctx context.Context, requesterID, bookingID int64, approved bool) (*models.Booking, error)
	GetBooking(ctx context.Context, requesterID, bookingID int64) (*models.Booking, error)
	ListForBooker(ctx context.Context, bookerID int64, state models.BookingState) ([]*models.Booking, error)
	ListForOwner(ctx context.Context, ownerID int64, state models.BookingState) ([]*models.Booking, error)
	ExportForOwner(ctx context.Context, ownerID int64, state models.BookingState) ([]byte, error)
}

type RequestService interface {
	CreateRequest(ctx context.Context, requestorID int64, description string) (*models.ItemRequest, error)
	ListOwn(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error)
	ListOthers(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error)
	GetRequest(ctx context.Context, requestorID, requestID int64) (*models.ItemRequest, error)
}
