// Package tokens reports a user's position against the token quota.
package tokens

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"edulearn/internal/api"
	"edulearn/internal/middleware"
	"edulearn/internal/model"
	"edulearn/internal/usage"

	"github.com/labstack/echo/v4"
)

type Reporter interface {
	Status(ctx context.Context, userID int) (usage.Status, error)
	Usage(ctx context.Context, userID int) (usage.Report, error)
}

// StatusHandler 回傳使用者目前的 token 額度
// @Summary     Token status
// @Tags        tokens
// @Produce     json
// @Success     200 {object} usage.Status
// @Failure     401 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Router      /tokens/status [get]
func StatusHandler(r Reporter) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := middleware.CurrentSession(c)
		st, err := r.Status(c.Request().Context(), sess.UserID)
		if errors.Is(err, usage.ErrLedgerMissing) {
			slog.Warn("token ledger missing, serving defaults")
			return c.JSON(http.StatusOK, usage.DefaultStatus())
		}
		if err != nil {
			slog.Error("token status failed", "user_id", sess.UserID, "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to read token usage"})
		}
		return c.JSON(http.StatusOK, st)
	}
}

// UsageHandler 回傳額度、各模型統計與最近 20 筆紀錄
// @Summary     Token usage report
// @Tags        tokens
// @Produce     json
// @Success     200 {object} usage.Report
// @Failure     401 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Router      /tokens/usage [get]
func UsageHandler(r Reporter) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := middleware.CurrentSession(c)
		rep, err := r.Usage(c.Request().Context(), sess.UserID)
		if errors.Is(err, usage.ErrLedgerMissing) {
			slog.Warn("token ledger missing, serving defaults")
			return c.JSON(http.StatusOK, usage.Report{
				Status:  usage.DefaultStatus(),
				ByModel: []model.ModelTokenTotal{},
				Recent:  []model.TokenUsage{},
			})
		}
		if err != nil {
			slog.Error("token usage failed", "user_id", sess.UserID, "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to read token usage"})
		}
		return c.JSON(http.StatusOK, rep)
	}
}
