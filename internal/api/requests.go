package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createRequestRequest struct {
	Description string `json:"description"`
}

func (s *HTTPServer) createRequest(c *gin.Context) {
	userID, ok := s.sharerID(c)
	if !ok {
		return
	}
	var req createRequestRequest
	if !s.bindJSON(c, &req) {
		return
	}

	request, err := s.svc.Requests.CreateRequest(c.Request.Context(), userID, req.Description)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemRequestDTO(request))
}

func (s *HTTPServer) listOwnRequests(c *gin.Context) {
	userID, ok := s.sharerID(c)
	if !ok {
		return
	}
	requests, err := s.svc.Requests.ListOwn(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemRequestDTOs(requests))
}

func (s *HTTPServer) listOtherRequests(c *gin.Context) {
	userID, ok := s.sharerID(c)
	if !ok {
		return
	}
	requests, err := s.svc.Requests.ListOthers(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemRequestDTOs(requests))
}

func (s *HTTPServer) getRequest(c *gin.Context) {
	userID, ok := s.sharerID(c)
	if !ok {
		return
	}
	requestID, ok := s.pathID(c, "requestId")
	if !ok {
		return
	}
	request, err := s.svc.Requests.GetRequest(c.Request.Context(), userID, requestID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemRequestDTO(request))
}
