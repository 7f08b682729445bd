// internal/api/handlers/auth_handler.go
package handlers

import (
	"net/http"
	"strings"

	"field-service-api/internal/auth"
	"field-service-api/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	Base
	Tokens *auth.TokenManager
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login checks the credentials and returns a signed token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	users, err := h.Store.Users.Find(c.Request.Context(), store.Filter{"email": strings.ToLower(req.Email)})
	if err != nil {
		h.storeError(c, err, "User")
		return
	}
	if len(users) == 0 || users[0].Status != "active" || !auth.CheckPasswordHash(req.Password, users[0].Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	user := users[0]

	token, err := h.Tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		h.Log.Error("generate token", zap.String("user", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
