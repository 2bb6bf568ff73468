package api

import (
	"net/http"

	"inventory-service/internal/models"

	"github.com/gin-gonic/gin"
)

// userView is the public subset returned with a token
type userView struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func publicUser(u *models.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (h *Handler) register(c *gin.Context) {
	var in models.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	token, user, err := h.auth.Register(c.Request.Context(), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"token": token, "user": publicUser(user)})
}

func (h *Handler) login(c *gin.Context) {
	var in models.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"token": token, "user": publicUser(user)})
}

func (h *Handler) me(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"user": currentUser(c)})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.auth.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": len(users), "users": users})
}
