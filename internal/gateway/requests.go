package gateway

// Request shapes checked before forwarding. The gateway never re-encodes
// them: the server receives the body exactly as sent.

type userCreateRequest struct {
	Name  string `json:"name" binding:"notblank"`
	Email string `json:"email" binding:"required,email"`
}

type userPatchRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
}

type itemCreateRequest struct {
	Name        string `json:"name" binding:"notblank"`
	Description string `json:"description" binding:"notblank"`
	Available   *bool  `json:"available" binding:"required"`
	RequestID   *int64 `json:"requestId" binding:"omitempty,gt=0"`
}

type itemPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

type commentRequest struct {
	Text string `json:"text" binding:"notblank"`
}

type bookingCreateRequest struct {
	ItemID *int64    `json:"itemId" binding:"required,gt=0"`
	Start  Timestamp `json:"start" binding:"required,future"`
	End    Timestamp `json:"end" binding:"required,future,after=Start"`
}

type itemRequestCreateRequest struct {
	Description string `json:"description" binding:"notblank,max=512"`
}
