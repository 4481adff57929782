package handler

import (
	"net/http"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/response"
	"github.com/gin-gonic/gin"
)

// AuthHandler provides the login/logout stubs. Authentication is
// handled upstream of this service; the endpoints exist so deployed
// clients keep a stable surface.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Login godoc
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"success": true})
}

// Logout godoc
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"success": true})
}
