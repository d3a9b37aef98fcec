package api

import (
	"net/http"

	"shareit/internal/models"

	"github.com/gin-gonic/gin"
)

type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
	RequestID   *int64 `json:"requestId"`
}

type commentRequest struct {
	Text string `json:"text"`
}

func (s *HTTPServer) createItem(c *gin.Context) {
	ownerID, ok := s.sharerID(c)
	if !ok {
		return
	}
	var req createItemRequest
	if !s.bindJSON(c, &req) {
		return
	}

	item := &models.Item{
		Name:        req.Name,
		Description: req.Description,
		Available:   req.Available != nil && *req.Available,
		RequestID:   req.RequestID,
	}
	created, err := s.svc.Items.CreateItem(c.Request.Context(), ownerID, item)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondItem(c, http.StatusCreated, created)
}

func (s *HTTPServer) patchItem(c *gin.Context) {
	ownerID, ok := s.sharerID(c)
	if !ok {
		return
	}
	itemID, ok := s.pathID(c, "itemId")
	if !ok {
		return
	}
	var patch models.ItemPatch
	if !s.bindJSON(c, &patch) {
		return
	}

	item, err := s.svc.Items.PatchItem(c.Request.Context(), ownerID, itemID, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondItem(c, http.StatusOK, item)
}

func (s *HTTPServer) getItem(c *gin.Context) {
	if _, ok := s.sharerID(c); !ok {
		return
	}
	itemID, ok := s.pathID(c, "itemId")
	if !ok {
		return
	}

	view, err := s.svc.Items.GetOwnerView(c.Request.Context(), itemID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOwnerViewDTO(view))
}

func (s *HTTPServer) listOwnerItems(c *gin.Context) {
	ownerID, ok := s.sharerID(c)
	if !ok {
		return
	}

	views, err := s.svc.Items.ListForOwner(c.Request.Context(), ownerID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]itemOwnerViewDTO, 0, len(views))
	for _, v := range views {
		out = append(out, toOwnerViewDTO(v))
	}
	c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) searchItems(c *gin.Context) {
	if _, ok := s.sharerID(c); !ok {
		return
	}

	ctx := c.Request.Context()
	items, err := s.svc.Items.Search(ctx, c.Query("text"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	owners := make(map[int64]*models.User)
	out := make([]itemDTO, 0, len(items))
	for _, item := range items {
		owner, cached := owners[item.OwnerID]
		if !cached {
			owner, err = s.svc.Users.GetUser(ctx, item.OwnerID)
			if err != nil {
				s.respondError(c, err)
				return
			}
			owners[item.OwnerID] = owner
		}
		out = append(out, toItemDTO(item, owner))
	}
	c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) deleteItem(c *gin.Context) {
	ownerID, ok := s.sharerID(c)
	if !ok {
		return
	}
	itemID, ok := s.pathID(c, "itemId")
	if !ok {
		return
	}
	if err := s.svc.Items.DeleteItem(c.Request.Context(), ownerID, itemID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *HTTPServer) addComment(c *gin.Context) {
	authorID, ok := s.sharerID(c)
	if !ok {
		return
	}
	itemID, ok := s.pathID(c, "itemId")
	if !ok {
		return
	}
	var req commentRequest
	if !s.bindJSON(c, &req) {
		return
	}

	comment, err := s.svc.Items.AddComment(c.Request.Context(), authorID, itemID, req.Text)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCommentDTO(comment))
}

// respondItem renders an item together with its owner.
func (s *HTTPServer) respondItem(c *gin.Context, status int, item *models.Item) {
	owner, err := s.svc.Users.GetUser(c.Request.Context(), item.OwnerID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(status, toItemDTO(item, owner))
}
