package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"edulearn/internal/api"
	"edulearn/internal/apikey"
	"edulearn/internal/database"
	"edulearn/internal/middleware"
	"edulearn/internal/store"

	"github.com/labstack/echo/v4"
)

// KeyValidator checks a key before it is stored.
type KeyValidator interface {
	Validate(ctx context.Context, key string) error
}

// KeyMode reports whether a server-wide key overrides user keys.
type KeyMode interface {
	UsingServerKey() bool
}

// GetAPIKeyHandler 回傳是否已設定 API key（遮罩後）
// @Summary     API key status
// @Tags        users
// @Produce     json
// @Success     200 {object} api.APIKeyStatusResponse
// @Failure     401 {object} api.ErrorResponse
// @Router      /users/me/api-key [get]
func GetAPIKeyHandler(db database.DB, mode KeyMode) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := middleware.CurrentSession(c)
		key, err := getUserAPIKey(c.Request().Context(), db, sess.UserID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Error("read api key failed", "user_id", sess.UserID, "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to read API key"})
		}
		resp := api.APIKeyStatusResponse{UsingServerKey: mode.UsingServerKey()}
		if key != nil && *key != "" {
			resp.HasKey = true
			resp.MaskedKey = apikey.Mask(*key)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// PutAPIKeyHandler 驗證並儲存使用者的 OpenRouter API key
// @Summary     Store API key
// @Description key 必須符合格式，且 provider 的 /credits 與 /models 皆回 200 才會儲存
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body body     api.UpdateAPIKeyRequest true "API key"
// @Success     200  {object} api.APIKeyStatusResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     502  {object} api.ErrorResponse
// @Router      /users/me/api-key [put]
func PutAPIKeyHandler(db database.DB, v KeyValidator, mode KeyMode) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.UpdateAPIKeyRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}
		key := strings.TrimSpace(req.APIKey)

		ctx := c.Request().Context()
		sess := middleware.CurrentSession(c)
		switch err := v.Validate(ctx, key); {
		case errors.Is(err, apikey.ErrInvalidFormat):
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Invalid API key format"})
		case errors.Is(err, apikey.ErrRejected):
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "API key was rejected by OpenRouter"})
		case err != nil:
			slog.Warn("api key validation failed", "user_id", sess.UserID, "error", err)
			return c.JSON(http.StatusBadGateway, api.ErrorResponse{Message: "Could not reach OpenRouter to validate the key"})
		}

		if err := updateUserAPIKey(ctx, db, sess.UserID, &key); err != nil {
			slog.Error("store api key failed", "user_id", sess.UserID, "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to store API key"})
		}
		return c.JSON(http.StatusOK, api.APIKeyStatusResponse{
			HasKey:         true,
			MaskedKey:      apikey.Mask(key),
			UsingServerKey: mode.UsingServerKey(),
		})
	}
}

// DeleteAPIKeyHandler 清除使用者的 API key
// @Summary     Clear API key
// @Tags        users
// @Produce     json
// @Success     200 {object} api.APIKeyStatusResponse
// @Router      /users/me/api-key [delete]
func DeleteAPIKeyHandler(db database.DB, mode KeyMode) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := middleware.CurrentSession(c)
		if err := updateUserAPIKey(c.Request().Context(), db, sess.UserID, nil); err != nil {
			slog.Error("clear api key failed", "user_id", sess.UserID, "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to clear API key"})
		}
		return c.JSON(http.StatusOK, api.APIKeyStatusResponse{UsingServerKey: mode.UsingServerKey()})
	}
}
