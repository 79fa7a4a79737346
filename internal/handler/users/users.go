// Package users serves the admin user list and the per-user API key.
package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"edulearn/internal/api"
	"edulearn/internal/database"
	"edulearn/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	listUsers        = store.ListUsers
	setUserAdmin     = store.SetUserAdmin
	getUserByID      = store.GetUserByID
	getUserAPIKey    = store.GetUserAPIKey
	updateUserAPIKey = store.UpdateUserAPIKey
)

// ListUsersHandler 列出所有使用者（管理員）
// @Summary     List users
// @Tags        admin
// @Produce     json
// @Success     200 {array}  api.UserResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     403 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Router      /admin/users [get]
func ListUsersHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listUsers(c.Request().Context(), db)
		if err != nil {
			slog.Error("list users failed", "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to list users"})
		}
		resp := make([]api.UserResponse, 0, len(list))
		for i := range list {
			resp = append(resp, api.NewUserResponse(&list[i]))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// SetAdminHandler 切換使用者的管理員旗標
// @Summary     Toggle admin flag
// @Tags        admin
// @Accept      json
// @Produce     json
// @Param       id   path     int                 true "使用者 ID"
// @Param       body body     api.SetAdminRequest true "isAdmin"
// @Success     200  {object} api.UserResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /admin/users/{id}/admin [patch]
func SetAdminHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid user id"})
		}
		var req api.SetAdminRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		ctx := c.Request().Context()
		if err := setUserAdmin(ctx, db, id, *req.IsAdmin); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "user not found"})
			}
			slog.Error("set admin failed", "user_id", id, "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to update user"})
		}
		u, err := getUserByID(ctx, db, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to load user"})
		}
		slog.Info("admin flag changed", "user_id", id, "is_admin", *req.IsAdmin)
		return c.JSON(http.StatusOK, api.NewUserResponse(u))
	}
}
