package service

import (
	"context"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{
		repo:   repo,
		logger: nopIfNil(logger),
		now:    time.Now,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, requestorID int64, description string) (*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, requestorID); err != nil {
		return nil, err
	}

	request := &models.ItemRequest{
		Description: description,
		RequestorID: requestorID,
		Created:     s.now(),
		Items:       []*models.ItemShort{},
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("request_id", request.ID).Int64("requestor_id", requestorID).Msg("item request created")
	return request, nil
}

func (s *RequestService) ListOwn(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error) {
	requests, err := s.repo.GetRequestsByRequestor(ctx, requestorID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

func (s *RequestService) ListOthers(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error) {
	requests, err := s.repo.GetRequestsExcludingRequestor(ctx, requestorID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

// GetRequest returns any request with its answering items, regardless of
// who asked for it.
func (s *RequestService) GetRequest(ctx context.Context, _ int64, requestID int64) (*models.ItemRequest, error) {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	enriched, err := s.withItems(ctx, []*models.ItemRequest{request})
	if err != nil {
		return nil, err
	}
	return enriched[0], nil
}

// withItems attaches the items created against each request with one query.
func (s *RequestService) withItems(ctx context.Context, requests []*models.ItemRequest) ([]*models.ItemRequest, error) {
	ids := make([]int64, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ID)
		r.Items = []*models.ItemShort{}
	}

	items, err := s.repo.GetItemsByRequestIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byRequest := make(map[int64][]*models.ItemShort, len(requests))
	for _, item := range items {
		byRequest[item.RequestID] = append(byRequest[item.RequestID], item)
	}
	for _, r := range requests {
		if found, ok := byRequest[r.ID]; ok {
			r.Items = found
		}
	}
	return requests, nil
}
