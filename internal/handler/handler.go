// Package handler holds the health check and helpers shared by the route
// group packages.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"edulearn/internal/api"
	"edulearn/internal/catalog"
	"edulearn/internal/middleware"

	"github.com/labstack/echo/v4"
)

func contextWithTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), d)
}

// PathID 解析 :id 路徑參數，失敗時已寫入 400
func PathID(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		_ = c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid id"})
		return 0, false
	}
	return id, true
}

// ViewerEmail is empty for anonymous callers.
func ViewerEmail(c echo.Context) string {
	if sess := middleware.CurrentSession(c); sess != nil {
		return sess.Email
	}
	return ""
}

// CatalogError 將 catalog 的錯誤轉成 HTTP 回應
func CatalogError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "not found"})
	case errors.Is(err, catalog.ErrForbidden):
		return c.JSON(http.StatusForbidden, api.ErrorResponse{Message: "Admin access required"})
	case errors.Is(err, catalog.ErrNotApproved):
		return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "event is not approved"})
	case errors.Is(err, catalog.ErrAlreadyRegistered):
		return c.JSON(http.StatusConflict, api.ErrorResponse{Message: "already registered"})
	case errors.Is(err, catalog.ErrEventFull):
		return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "event is full"})
	}
	slog.Error(op+" failed", "error", err)
	return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "internal error"})
}

// IncludePending reads the includePending query flag.
func IncludePending(c echo.Context) bool {
	v, _ := strconv.ParseBool(c.QueryParam("includePending"))
	return v
}
