package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kirshify/admin/internal/middleware"
	"kirshify/admin/internal/service"
	"kirshify/admin/internal/storage"
)

type listUsersResponse struct {
	Items   []userResponse `json:"items"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
}

func (h HandlerSet) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("perPage"))

	result, err := h.users.List(c.Request.Context(), service.ListInput{
		Page:    page,
		PerPage: perPage,
		Query:   c.Query("q"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]userResponse, 0, len(result.Items))
	for _, user := range result.Items {
		items = append(items, h.toUserResponse(user))
	}

	c.JSON(http.StatusOK, listUsersResponse{
		Items:   items,
		Total:   result.Total,
		Page:    result.Page,
		PerPage: result.PerPage,
	})
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Not authorized")
		return
	}

	if err := h.users.Delete(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type importUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type importRequest struct {
	Users     []importUserRequest `json:"users"`
	ObjectKey string              `json:"objectKey"`
}

type importResponse struct {
	OK        bool   `json:"ok"`
	Imported  int    `json:"imported"`
	Skipped   int    `json:"skipped"`
	ObjectKey string `json:"objectKey,omitempty"`
}

func (h HandlerSet) ImportUsers(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxImportSize)

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Body must be {users: [...]} or {objectKey}")
		return
	}

	input := service.ImportInput{ObjectKey: req.ObjectKey}
	for _, u := range req.Users {
		input.Users = append(input.Users, service.ImportUser{
			Name:     u.Name,
			Email:    u.Email,
			Role:     u.Role,
			Password: u.Password,
		})
	}

	result, err := h.users.Import(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, importResponse{
		OK:        true,
		Imported:  result.Imported,
		Skipped:   result.Skipped,
		ObjectKey: result.ObjectKey,
	})
}

func (h HandlerSet) Stats(c *gin.Context) {
	stats, err := h.users.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
