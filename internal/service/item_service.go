package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:     repo,
		eventBus: eventBus,
		logger:   nopIfNil(logger),
		now:      time.Now,
	}
}

// CreateItem stores a new item owned by ownerID. The request id, if any, is
// kept as given.
func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	created := &models.Item{
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
		OwnerID:     ownerID,
		RequestID:   item.RequestID,
	}
	if err := s.repo.CreateItem(ctx, created); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("item_id", created.ID).Int64("owner_id", ownerID).Msg("item created")
	return created, nil
}

func (s *ItemService) PatchItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.ownedItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}

	patch.Apply(item)
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) GetItem(ctx context.Context, itemID int64) (*models.Item, error) {
	return s.repo.GetItemByID(ctx, itemID)
}

// GetOwnerView returns the item with its adjacent booking starts and
// comments. Any user may read it.
func (s *ItemService) GetOwnerView(ctx context.Context, itemID int64) (*models.ItemOwnerView, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.ownerView(ctx, item)
}

func (s *ItemService) ListForOwner(ctx context.Context, ownerID int64) ([]*models.ItemOwnerView, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	items, err := s.repo.GetItemsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	views := make([]*models.ItemOwnerView, 0, len(items))
	for _, item := range items {
		view, err := s.ownerView(ctx, item)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// Search returns available items whose name or description contains text.
// Blank text matches nothing.
func (s *ItemService) Search(ctx context.Context, text string) ([]*models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchAvailableItems(ctx, text)
}

func (s *ItemService) DeleteItem(ctx context.Context, ownerID, itemID int64) error {
	if _, err := s.ownedItem(ctx, ownerID, itemID); err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.logger.Info().Int64("item_id", itemID).Msg("item deleted")
	return nil
}

// AddComment accepts a comment only from a user who has an approved booking
// of the item that has already started.
func (s *ItemService) AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.Comment, error) {
	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		return nil, err
	}
	author, err := s.repo.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	eligible, err := s.repo.HasApprovedBookingStartedBefore(ctx, authorID, itemID, now)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, domain.NewUnavailableError("user %d cannot comment on item %d without a past approved booking", authorID, itemID)
	}

	comment := &models.Comment{
		Text:       text,
		ItemID:     itemID,
		AuthorID:   authorID,
		AuthorName: author.Name,
		Created:    now,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		payload := events.CommentEventPayload{CommentID: comment.ID, ItemID: itemID, AuthorID: authorID, Text: text}
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, payload); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("publish event error")
		}
	}
	return comment, nil
}

func (s *ItemService) ownedItem(ctx context.Context, userID, itemID int64) (*models.Item, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != userID {
		return nil, domain.NewForbiddenError("user %d is not the owner of item %d", userID, itemID)
	}
	return item, nil
}

func (s *ItemService) ownerView(ctx context.Context, item *models.Item) (*models.ItemOwnerView, error) {
	last, next, err := s.repo.GetAdjacentBookingStarts(ctx, item.ID, s.now())
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.GetCommentsByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	return &models.ItemOwnerView{
		Item:        *item,
		LastBooking: last,
		NextBooking: next,
		Comments:    comments,
	}, nil
}
