package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"authgate/internal/domain"
	"authgate/internal/modules/users"
	"authgate/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Directory creates users in the upstream users service (and primes the
// local replica) so register can auto-login.
type Directory interface {
	CreateUser(ctx context.Context, username, name, surname, email, password string) (*domain.User, error)
}

// Handler manages the HTTP surface of the rotation engine.
type Handler struct {
	service   *Service
	directory Directory
}

func NewHandler(service *Service, directory Directory) *Handler {
	return &Handler{service: service, directory: directory}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
		authGroup.POST("/refresh", h.Refresh)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/auth/logout", h.Logout)
}

// Login проверяет учётные данные и открывает новую сессию с парой токенов.
// @Summary		Войти
// @Description	Проверяет username/password по локальной реплике пользователей и выдаёт пару access/refresh токенов, привязанную к новой сессии.
// @Tags		Аутентификация
// @Param		request	body	LoginRequest	true	"Учётные данные"
// @Success		200	{object}	map[string]interface{} "Пара токенов"
// @Failure		401	{object}	map[string]interface{} "Неверные учётные данные"
// @Router		/auth/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	pair, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "LOGIN_FAILED")
		return
	}

	response.Success(c, http.StatusOK, pair)
}

// Register создаёт пользователя в сервисе пользователей и сразу логинит его.
// @Summary		Зарегистрироваться
// @Description	Проксирует создание пользователя в сервис пользователей, после чего выполняет автоматический вход и возвращает пару токенов.
// @Tags		Аутентификация
// @Param		request	body	RegisterRequest	true	"Данные нового пользователя"
// @Success		201	{object}	map[string]interface{} "Пара токенов"
// @Failure		400	{object}	map[string]interface{} "Сервис пользователей отклонил регистрацию"
// @Failure		502	{object}	map[string]interface{} "Сервис пользователей недоступен"
// @Router		/auth/register [POST]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.directory.CreateUser(c.Request.Context(), req.Username, req.Name, req.Surname, req.Email, req.Password)
	if err != nil {
		// A duplicate username is the caller's problem, not a broken upstream.
		if errors.Is(err, users.ErrUserRejected) {
			response.Error(c, http.StatusBadRequest, "USER_CREATION_REJECTED", "Users service rejected registration")
			return
		}
		response.Error(c, http.StatusBadGateway, "USER_CREATION_FAILED", "Failed to create user")
		return
	}

	pair, err := h.service.Login(c.Request.Context(), LoginRequest{
		Username: user.Username,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(c, err, "LOGIN_FAILED")
		return
	}

	response.Success(c, http.StatusCreated, pair)
}

// Refresh ротирует пару токенов по действующему refresh токену.
// @Summary		Обновить токены
// @Description	Принимает живой refresh токен, гасит старую пару и выдаёт новую. Повторное использование уже погашенного refresh токена блокирует сессию.
// @Tags		Аутентификация
// @Param		request	body	TokenRequest	true	"Refresh токен"
// @Success		200	{object}	map[string]interface{} "Новая пара токенов"
// @Failure		401	{object}	map[string]interface{} "Недействительный или повторно использованный токен"
// @Router		/auth/refresh [POST]
func (h *Handler) Refresh(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.Token)
	if err != nil {
		h.writeError(c, err, "REFRESH_FAILED")
		return
	}

	response.Success(c, http.StatusOK, pair)
}

// Logout завершает сессию, указанную в access токене.
// @Summary		Выйти
// @Description	Деактивирует сессию access токена и помечает все её токены погашенными. Повторный выход из той же сессии безопасен.
// @Tags		Аутентификация
// @Success		200	{object}	map[string]interface{} "Выход выполнен"
// @Failure		401	{object}	map[string]interface{} "Недействительный токен"
// @Failure		403	{object}	map[string]interface{} "Сессия не существует"
// @Router		/auth/logout [POST]
func (h *Handler) Logout(c *gin.Context) {
	accessRaw := bearerToken(c)
	if accessRaw == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing bearer token")
		return
	}

	if err := h.service.Logout(c.Request.Context(), accessRaw); err != nil {
		h.writeError(c, err, "LOGOUT_FAILED")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"detail": "Logout successful"})
}

func (h *Handler) writeError(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Username or password is incorrect")
	case errors.Is(err, ErrInvalidToken):
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired")
	case errors.Is(err, ErrInvalidSession):
		response.Error(c, http.StatusForbidden, "INVALID_SESSION", "Session does not exist")
	case errors.Is(err, ErrUpstreamUnavailable):
		response.Error(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Service temporarily unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, fallbackCode, "Internal server error")
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}
