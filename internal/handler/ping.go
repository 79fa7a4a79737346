package handler

import (
	"net/http"
	"time"

	"edulearn/internal/api"
	"edulearn/internal/cache"
	"edulearn/internal/database"

	"github.com/labstack/echo/v4"
)

const pingTimeout = 2 * time.Second

// PingHandler 健康檢查
// @Summary     Health Check
// @Description 回傳 pong，並檢查資料庫與 Redis 連線是否正常
// @Tags        health
// @Produce     json
// @Success     200 {object} api.PingResponse
// @Failure     503 {object} api.PingResponse
// @Router      /ping [get]
func PingHandler(db database.DB, cch cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := contextWithTimeout(c, pingTimeout)
		defer cancel()

		resp := api.PingResponse{Message: "pong", Database: "ok", Cache: "ok"}
		status := http.StatusOK
		if err := db.Ping(ctx); err != nil {
			resp.Database = "database unhealthy"
			status = http.StatusServiceUnavailable
		}
		if err := cch.Set(ctx, "ping", "pong", time.Second).Err(); err != nil {
			resp.Cache = "cache unhealthy"
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, resp)
	}
}
