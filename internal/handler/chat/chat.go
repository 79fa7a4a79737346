// Package chat proxies chat completions to OpenRouter under the token quota.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"edulearn/internal/api"
	"edulearn/internal/apikey"
	"edulearn/internal/metrics"
	"edulearn/internal/middleware"
	"edulearn/internal/openrouter"
	"edulearn/internal/usage"

	"github.com/labstack/echo/v4"
)

const requestType = "chat"

type Budget interface {
	Status(ctx context.Context, userID int) (usage.Status, error)
	Record(ctx context.Context, userID, tokensUsed int, modelID, requestType string) error
}

type KeyResolver interface {
	Resolve(ctx context.Context, userID int) (string, error)
}

type Completer interface {
	Chat(ctx context.Context, key string, req openrouter.ChatRequest) (*openrouter.Response, error)
}

type Deps struct {
	Budget        Budget
	Keys          KeyResolver
	Provider      Completer
	Metrics       *metrics.Metrics
	FallbackModel string
}

// Handler 轉送對話請求；順序為額度、API key、provider
// @Summary     Chat completion
// @Description 需登入並受每個 IP 的速率限制；成功時原樣回傳 provider 的回應並記錄 token 用量
// @Tags        chat
// @Accept      json
// @Produce     json
// @Param       body body     api.ChatRequest true "對話內容"
// @Success     200  {object} map[string]interface{}
// @Failure     400  {object} api.ChatErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     403  {object} api.TokenLimitResponse
// @Failure     429  {object} api.ChatErrorResponse
// @Failure     502  {object} api.ErrorResponse
// @Router      /chat [post]
func Handler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.ChatRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		ctx := c.Request().Context()
		sess := middleware.CurrentSession(c)

		st, err := d.Budget.Status(ctx, sess.UserID)
		if errors.Is(err, usage.ErrLedgerMissing) {
			st, err = usage.DefaultStatus(), nil
		}
		if err != nil {
			slog.Error("token status failed", "user_id", sess.UserID, "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to read token usage"})
		}
		if !st.HasTokens {
			d.Metrics.Chat(metrics.OutcomeQuotaExceeded)
			return c.JSON(http.StatusForbidden, api.TokenLimitResponse{Message: "Token limit exceeded", Status: st})
		}

		key, err := d.Keys.Resolve(ctx, sess.UserID)
		if errors.Is(err, apikey.ErrNoAPIKey) {
			d.Metrics.Chat(metrics.OutcomeNoKey)
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "No API key configured"})
		}
		if err != nil {
			slog.Error("api key lookup failed", "user_id", sess.UserID, "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to resolve API key"})
		}

		resp, err := d.Provider.Chat(ctx, key, toProvider(req))
		if err != nil {
			d.Metrics.Chat(metrics.OutcomeTransport)
			slog.Error("chat upstream unreachable", "model", req.Model, "error", err)
			return c.JSON(http.StatusBadGateway, api.ErrorResponse{Message: "Failed to reach the AI provider"})
		}
		if !resp.OK() {
			return upstreamError(c, d, req.Model, resp)
		}

		if n := openrouter.TotalTokens(resp.Body); n > 0 {
			modelID := openrouter.ModelID(resp.Body)
			if modelID == "" {
				modelID = req.Model
			}
			if err := d.Budget.Record(ctx, sess.UserID, n, modelID, requestType); err != nil {
				slog.Error("record token usage failed", "user_id", sess.UserID, "tokens", n, "error", err)
			} else {
				d.Metrics.Tokens(n)
			}
		}
		d.Metrics.Chat(metrics.OutcomeOK)
		return c.Blob(http.StatusOK, contentType(resp), resp.Body)
	}
}

func upstreamError(c echo.Context, d Deps, requested string, resp *openrouter.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		d.Metrics.Chat(metrics.OutcomeUpstream429)
		retry := openrouter.RetryAfter(resp.Header)
		c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
		return c.JSON(http.StatusTooManyRequests, api.ChatErrorResponse{
			Error:      "Rate limit exceeded at OpenRouter. Please try again later.",
			RetryAfter: retry,
		})
	case openrouter.IsModelNotFound(resp.Body):
		d.Metrics.Chat(metrics.OutcomeModelNotFound)
		slog.Warn("chat model unavailable", "model", requested)
		return c.JSON(http.StatusBadRequest, api.ChatErrorResponse{
			Error:          "Model " + requested + " is not available",
			SuggestedModel: d.FallbackModel,
		})
	default:
		d.Metrics.Chat(metrics.OutcomeUpstreamError)
		slog.Warn("chat upstream error", "model", requested, "status", resp.StatusCode)
		return c.Blob(resp.StatusCode, contentType(resp), resp.Body)
	}
}

func toProvider(req api.ChatRequest) openrouter.ChatRequest {
	msgs := make([]openrouter.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openrouter.Message{Role: m.Role, Content: m.Content})
	}
	return openrouter.ChatRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}

func contentType(resp *openrouter.Response) string {
	if ct := resp.Header.Get(echo.HeaderContentType); ct != "" {
		return ct
	}
	return echo.MIMEApplicationJSON
}
