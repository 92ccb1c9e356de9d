package users

import (
	"errors"
	"net/http"

	"authgate/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	userGroup := protected.Group("/users")
	{
		userGroup.GET("/me", h.GetMe)
		userGroup.POST("/change_password", h.ChangePassword)
	}
}

// GetMe возвращает профиль текущего пользователя из локальной реплики.
// @Summary		Текущий пользователь
// @Tags		Пользователи
// @Success		200	{object}	map[string]interface{} "Профиль"
// @Failure		404	{object}	map[string]interface{} "Пользователь не найден"
// @Router		/users/me [GET]
func (h *Handler) GetMe(c *gin.Context) {
	userID := c.GetInt64("user_id")

	user, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "PROFILE_FAILED", "Failed to load profile")
		return
	}

	response.Success(c, http.StatusOK, user)
}

// ChangePassword проксирует смену пароля в сервис пользователей.
// @Summary		Сменить пароль
// @Tags		Пользователи
// @Param		request	body	ChangePasswordRequest	true	"Старый и новый пароль"
// @Success		200	{object}	map[string]interface{} "Пароль изменён"
// @Failure		400	{object}	map[string]interface{} "Сервис пользователей отклонил запрос"
// @Failure		502	{object}	map[string]interface{} "Сервис пользователей недоступен"
// @Router		/users/change_password [POST]
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	userID := c.GetInt64("user_id")
	if err := h.service.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrUserRejected):
			response.Error(c, http.StatusBadRequest, "CHANGE_REJECTED", "Password change was rejected")
		case errors.Is(err, ErrUsersUnavailable):
			response.Error(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Users service unavailable")
		default:
			response.Error(c, http.StatusInternalServerError, "CHANGE_FAILED", "Failed to change password")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"detail": "Password changed"})
}
