package api

import (
	"shareit/internal/models"
)

type userDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type itemDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Available   bool    `json:"available"`
	Owner       userDTO `json:"owner"`
	RequestID   *int64  `json:"requestId"`
}

type commentDTO struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	ItemID     int64  `json:"itemId"`
	AuthorName string `json:"authorName"`
	Created    string `json:"created"`
}

type itemOwnerViewDTO struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Available   bool         `json:"available"`
	OwnerID     int64        `json:"ownerId"`
	LastBooking *string      `json:"lastBooking"`
	NextBooking *string      `json:"nextBooking"`
	Comments    []commentDTO `json:"comments"`
}

type refDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type bookingDTO struct {
	ID     int64  `json:"id"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
	Booker refDTO `json:"booker"`
	Item   refDTO `json:"item"`
}

type itemShortDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"ownerId"`
}

type itemRequestDTO struct {
	ID          int64          `json:"id"`
	Description string         `json:"description"`
	Created     string         `json:"created"`
	Items       []itemShortDTO `json:"items"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toItemDTO(item *models.Item, owner *models.User) itemDTO {
	return itemDTO{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
		Owner:       toUserDTO(owner),
		RequestID:   item.RequestID,
	}
}

func toCommentDTO(c *models.Comment) commentDTO {
	return commentDTO{
		ID:         c.ID,
		Text:       c.Text,
		ItemID:     c.ItemID,
		AuthorName: c.AuthorName,
		Created:    models.FormatTime(c.Created),
	}
}

func toOwnerViewDTO(v *models.ItemOwnerView) itemOwnerViewDTO {
	comments := make([]commentDTO, 0, len(v.Comments))
	for _, c := range v.Comments {
		comments = append(comments, toCommentDTO(c))
	}
	return itemOwnerViewDTO{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Available:   v.Available,
		OwnerID:     v.OwnerID,
		LastBooking: models.FormatTimePtr(v.LastBooking),
		NextBooking: models.FormatTimePtr(v.NextBooking),
		Comments:    comments,
	}
}

func toBookingDTO(b *models.Booking) bookingDTO {
	return bookingDTO{
		ID:     b.ID,
		Start:  models.FormatTime(b.Start),
		End:    models.FormatTime(b.End),
		Status: string(b.Status),
		Booker: refDTO{ID: b.BookerID, Name: b.BookerName},
		Item:   refDTO{ID: b.ItemID, Name: b.ItemName},
	}
}

func toBookingDTOs(bookings []*models.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}

func toItemRequestDTO(r *models.ItemRequest) itemRequestDTO {
	items := make([]itemShortDTO, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, itemShortDTO{ID: it.ID, Name: it.Name, OwnerID: it.OwnerID})
	}
	return itemRequestDTO{
		ID:          r.ID,
		Description: r.Description,
		Created:     models.FormatTime(r.Created),
		Items:       items,
	}
}

func toItemRequestDTOs(requests []*models.ItemRequest) []itemRequestDTO {
	out := make([]itemRequestDTO, 0, len(requests))
	for _, r := range requests {
		out = append(out, toItemRequestDTO(r))
	}
	return out
}
