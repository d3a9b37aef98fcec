package api

import (
	"net/http"
	"strconv"

	"shareit/internal/domain"
	"shareit/internal/export"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
)

type createBookingRequest struct {
	ItemID int64  `json:"itemId"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

func (s *HTTPServer) createBooking(c *gin.Context) {
	bookerID, ok := s.sharerID(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if !s.bindJSON(c, &req) {
		return
	}

	start, err := models.ParseTime(req.Start)
	if err != nil {
		s.respondError(c, domain.NewBadRequestError("invalid start: %s", req.Start))
		return
	}
	end, err := models.ParseTime(req.End)
	if err != nil {
		s.respondError(c, domain.NewBadRequestError("invalid end: %s", req.End))
		return
	}

	booking, err := s.svc.Bookings.CreateBooking(c.Request.Context(), bookerID, req.ItemID, start, end)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingDTO(booking))
}

func (s *HTTPServer) approveBooking(c *gin.Context) {
	userID, ok := s.sharerID(c)
	if !ok {
		return
	}
	bookingID, ok := s.pathID(c, "bookingId")
	if !ok {
		return
	}
	approved, err := strconv.ParseBool(c.Query("approved"))
	if err != nil {
		s.abort(c, http.StatusBadRequest, "approved must be true or false")
		return
	}

	booking, err := s.svc.Bookings.Approve(c.Request.Context(), userID, bookingID, approved)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingDTO(booking))
}

func (s *HTTPServer) getBooking(c *gin.Context) {
	userID, ok := s.sharerID(c)
	if !ok {
		return
	}
	bookingID, ok := s.pathID(c, "bookingId")
	if !ok {
		return
	}

	booking, err := s.svc.Bookings.GetBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingDTO(booking))
}

func (s *HTTPServer) listBookerBookings(c *gin.Context) {
	userID, state, ok := s.stateQuery(c)
	if !ok {
		return
	}

	bookings, err := s.svc.Bookings.ListForBooker(c.Request.Context(), userID, state)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingDTOs(bookings))
}

func (s *HTTPServer) listOwnerBookings(c *gin.Context) {
	userID, state, ok := s.stateQuery(c)
	if !ok {
		return
	}

	bookings, err := s.svc.Bookings.ListForOwner(c.Request.Context(), userID, state)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingDTOs(bookings))
}

func (s *HTTPServer) exportOwnerBookings(c *gin.Context) {
	userID, state, ok := s.stateQuery(c)
	if !ok {
		return
	}

	data, err := s.svc.Bookings.ExportForOwner(c.Request.Context(), userID, state)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	c.Data(http.StatusOK, export.ContentType, data)
}

func (s *HTTPServer) stateQuery(c *gin.Context) (int64, models.BookingState, bool) {
	userID, ok := s.sharerID(c)
	if !ok {
		return 0, "", false
	}
	state, err := models.ParseBookingState(c.Query("state"))
	if err != nil {
		s.abort(c, http.StatusBadRequest, err.Error())
		return 0, "", false
	}
	return userID, state, true
}
