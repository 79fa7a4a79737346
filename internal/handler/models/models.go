// Package models serves the mirrored provider model catalog.
package models

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"edulearn/internal/api"
	"edulearn/internal/database"
	"edulearn/internal/model"
	"edulearn/internal/store"
	"edulearn/internal/worker"

	"github.com/labstack/echo/v4"
)

var (
	listModels    = store.ListModels
	latestSyncLog = store.LatestSyncLog
)

// ListHandler 列出已同步的模型
// @Summary     List models
// @Tags        models
// @Produce     json
// @Param       free query bool false "只列出免費模型"
// @Success     200 {array}  model.ProviderModel
// @Failure     500 {object} api.ErrorResponse
// @Router      /models [get]
func ListHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		free, _ := strconv.ParseBool(c.QueryParam("free"))
		list, err := listModels(c.Request().Context(), db, free)
		if err != nil {
			slog.Error("list models failed", "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to list models"})
		}
		if list == nil {
			list = []model.ProviderModel{}
		}
		return c.JSON(http.StatusOK, list)
	}
}

// SyncHandler 把模型同步排入背景工作
// @Summary     Trigger model sync
// @Tags        admin
// @Produce     json
// @Success     202 {object} api.MessageResponse
// @Failure     403 {object} api.ErrorResponse
// @Failure     503 {object} api.ErrorResponse
// @Router      /admin/models/sync [post]
func SyncHandler(pool worker.Pool, task worker.Task) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !pool.TrySubmit(task) {
			return c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Message: "a model sync is already queued"})
		}
		return c.JSON(http.StatusAccepted, api.MessageResponse{Message: "model sync started"})
	}
}

// LatestSyncHandler 回傳最近一次同步紀錄
// @Summary     Latest model sync
// @Tags        admin
// @Produce     json
// @Success     200 {object} model.ModelSyncLog
// @Failure     404 {object} api.ErrorResponse
// @Router      /admin/models/sync [get]
func LatestSyncHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		l, err := latestSyncLog(c.Request().Context(), db)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "no sync has run yet"})
		}
		if err != nil {
			slog.Error("latest sync log failed", "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to read sync log"})
		}
		return c.JSON(http.StatusOK, l)
	}
}
