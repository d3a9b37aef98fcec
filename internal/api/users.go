package api

import (
	"net/http"

	"shareit/internal/models"

	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *HTTPServer) createUser(c *gin.Context) {
	var req createUserRequest
	if !s.bindJSON(c, &req) {
		return
	}

	user, err := s.svc.Users.CreateUser(c.Request.Context(), &models.User{Name: req.Name, Email: req.Email})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserDTO(user))
}

func (s *HTTPServer) getUser(c *gin.Context) {
	id, ok := s.pathID(c, "userId")
	if !ok {
		return
	}

	user, err := s.svc.Users.GetUser(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserDTO(user))
}

func (s *HTTPServer) updateUser(c *gin.Context) {
	id, ok := s.pathID(c, "userId")
	if !ok {
		return
	}
	var patch models.UserPatch
	if !s.bindJSON(c, &patch) {
		return
	}

	user, err := s.svc.Users.UpdateUser(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserDTO(user))
}

func (s *HTTPServer) deleteUser(c *gin.Context) {
	id, ok := s.pathID(c, "userId")
	if !ok {
		return
	}
	if err := s.svc.Users.DeleteUser(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
