package schools

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"authgate/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Query params forwarded to the schools microservice. Everything else
// is dropped at the gateway.
var (
	schoolListParams  = []string{"limit", "offset", "search", "tipo", "citta", "provincia", "indirizzo", "sort_by", "order"}
	subjectListParams = []string{"limit", "offset", "search", "sort_by", "order"}
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes вешает публичные маршруты каталога (только чтение).
func (h *Handler) RegisterRoutes(public *gin.RouterGroup) {
	public.GET("/schools", h.ListSchools)
	public.GET("/schools/:id", h.GetSchool)
	public.GET("/subjects", h.ListSubjects)
	public.GET("/subjects/:id", h.GetSubject)
}

// RegisterProtectedRoutes вешает маршруты изменения каталога.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/schools", h.CreateSchool)
	protected.PUT("/schools/:id", h.UpdateSchool)
	protected.DELETE("/schools/:id", h.DeleteSchool)
	protected.POST("/subjects", h.CreateSubject)
	protected.PUT("/subjects/:id", h.UpdateSubject)
	protected.DELETE("/subjects/:id", h.DeleteSubject)
}

// ListSchools проксирует список школ с фильтрами и пагинацией.
// @Summary		Список школ
// @Tags		Каталог
// @Success		200	{object}	map[string]interface{} "Список школ"
// @Failure		502	{object}	map[string]interface{} "Сервис школ недоступен"
// @Router		/schools [GET]
func (h *Handler) ListSchools(c *gin.Context) {
	data, err := h.service.ListSchools(c.Request.Context(), pickQuery(c, schoolListParams))
	if err != nil {
		h.writeError(c, err, "SCHOOLS")
		return
	}
	response.Success(c, http.StatusOK, data)
}

// GetSchool проксирует одну школу по идентификатору.
// @Summary		Школа по ID
// @Tags		Каталог
// @Success		200	{object}	map[string]interface{} "Школа"
// @Failure		404	{object}	map[string]interface{} "Школа не найдена"
// @Router		/schools/{id} [GET]
func (h *Handler) GetSchool(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	data, err := h.service.GetSchool(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "SCHOOL")
		return
	}
	response.Success(c, http.StatusOK, data)
}

// CreateSchool проксирует создание школы.
// @Summary		Создать школу
// @Tags		Каталог
// @Success		201	{object}	map[string]interface{} "Создано"
// @Failure		400	{object}	map[string]interface{} "Сервис школ отклонил запрос"
// @Router		/schools [POST]
func (h *Handler) CreateSchool(c *gin.Context) {
	body, ok := h.rawBody(c)
	if !ok {
		return
	}
	data, err := h.service.CreateSchool(c.Request.Context(), body)
	if err != nil {
		h.writeError(c, err, "SCHOOL")
		return
	}
	response.Success(c, http.StatusCreated, data)
}

// UpdateSchool проксирует обновление школы.
// @Summary		Обновить школу
// @Tags		Каталог
// @Router		/schools/{id} [PUT]
func (h *Handler) UpdateSchool(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	body, ok := h.rawBody(c)
	if !ok {
		return
	}
	data, err := h.service.UpdateSchool(c.Request.Context(), id, body)
	if err != nil {
		h.writeError(c, err, "SCHOOL")
		return
	}
	response.Success(c, http.StatusOK, data)
}

// DeleteSchool проксирует удаление школы.
// @Summary		Удалить школу
// @Tags		Каталог
// @Router		/schools/{id} [DELETE]
func (h *Handler) DeleteSchool(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSchool(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "SCHOOL")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"detail": "School deleted"})
}

// ListSubjects проксирует список предметов.
// @Summary		Список предметов
// @Tags		Каталог
// @Router		/subjects [GET]
func (h *Handler) ListSubjects(c *gin.Context) {
	data, err := h.service.ListSubjects(c.Request.Context(), pickQuery(c, subjectListParams))
	if err != nil {
		h.writeError(c, err, "SUBJECTS")
		return
	}
	response.Success(c, http.StatusOK, data)
}

// GetSubject проксирует один предмет по идентификатору.
// @Summary		Предмет по ID
// @Tags		Каталог
// @Router		/subjects/{id} [GET]
func (h *Handler) GetSubject(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	data, err := h.service.GetSubject(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "SUBJECT")
		return
	}
	response.Success(c, http.StatusOK, data)
}

// CreateSubject проксирует создание предмета.
// @Summary		Создать предмет
// @Tags		Каталог
// @Router		/subjects [POST]
func (h *Handler) CreateSubject(c *gin.Context) {
	body, ok := h.rawBody(c)
	if !ok {
		return
	}
	data, err := h.service.CreateSubject(c.Request.Context(), body)
	if err != nil {
		h.writeError(c, err, "SUBJECT")
		return
	}
	response.Success(c, http.StatusCreated, data)
}

// UpdateSubject проксирует обновление предмета.
// @Summary		Обновить предмет
// @Tags		Каталог
// @Router		/subjects/{id} [PUT]
func (h *Handler) UpdateSubject(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	body, ok := h.rawBody(c)
	if !ok {
		return
	}
	data, err := h.service.UpdateSubject(c.Request.Context(), id, body)
	if err != nil {
		h.writeError(c, err, "SUBJECT")
		return
	}
	response.Success(c, http.StatusOK, data)
}

// DeleteSubject проксирует удаление предмета.
// @Summary		Удалить предмет
// @Tags		Каталог
// @Router		/subjects/{id} [DELETE]
func (h *Handler) DeleteSubject(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSubject(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "SUBJECT")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"detail": "Subject deleted"})
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) rawBody(c *gin.Context) (json.RawMessage, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return nil, false
	}
	return body, true
}

func (h *Handler) writeError(c *gin.Context, err error, subject string) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, subject+"_NOT_FOUND", "Not found")
	case errors.Is(err, ErrSchoolsRejected):
		response.Error(c, http.StatusBadRequest, subject+"_REJECTED", "Schools service rejected request")
	case errors.Is(err, ErrSchoolsUnavailable):
		response.Error(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Schools service unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, subject+"_FAILED", "Request failed")
	}
}

func pickQuery(c *gin.Context, allowed []string) url.Values {
	query := url.Values{}
	for _, key := range allowed {
		if value := c.Query(key); value != "" {
			query.Set(key, value)
		}
	}
	return query
}
