package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hashchat/internal/domain"
	"hashchat/internal/service"
)

// DirectoryHandler expone busqueda y lookup de usuarios.
type DirectoryHandler struct {
	logger *zap.Logger
	dir    *service.DirectoryService
}

func NewDirectoryHandler(logger *zap.Logger, dir *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{logger: logger, dir: dir}
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Search maneja GET /api/users/search?q=.
func (h *DirectoryHandler) Search(c *gin.Context) {
	claims, _ := GetAuthClaims(c)
	users, err := h.dir.Search(c.Request.Context(), claims.UserID, c.Query("q"))
	if err != nil {
		h.logger.Error("user search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

// GetByUsername maneja GET /api/user/username/:username.
func (h *DirectoryHandler) GetByUsername(c *gin.Context) {
	user, err := h.dir.GetByUsername(c.Request.Context(), c.Param("username"))
	h.respondUser(c, user, err)
}

// GetByID maneja GET /api/user/:userId.
func (h *DirectoryHandler) GetByID(c *gin.Context) {
	user, err := h.dir.GetByID(c.Request.Context(), c.Param("userId"))
	h.respondUser(c, user, err)
}

func (h *DirectoryHandler) respondUser(c *gin.Context, user domain.User, err error) {
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("user lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
