package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"edulearn/internal/catalog"
	"edulearn/internal/middleware"
	"edulearn/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newCtx(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestPathID(t *testing.T) {
	ctx, rec := newCtx("/")
	ctx.SetParamNames("id")
	ctx.SetParamValues("12")
	id, ok := PathID(ctx)
	require.True(t, ok)
	require.Equal(t, 12, id)

	for _, v := range []string{"x", "0", "-3"} {
		ctx, rec = newCtx("/")
		ctx.SetParamNames("id")
		ctx.SetParamValues(v)
		_, ok = PathID(ctx)
		require.False(t, ok)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestViewerEmailAndIncludePending(t *testing.T) {
	ctx, _ := newCtx("/?includePending=true")
	require.Equal(t, "", ViewerEmail(ctx))
	require.True(t, IncludePending(ctx))

	ctx.Set(middleware.ContextSessionKey, &service.SessionData{Email: "a@x.io"})
	require.Equal(t, "a@x.io", ViewerEmail(ctx))

	ctx, _ = newCtx("/?includePending=nope")
	require.False(t, IncludePending(ctx))
}

func TestCatalogError(t *testing.T) {
	cases := map[error]int{
		catalog.ErrNotFound:          http.StatusNotFound,
		catalog.ErrForbidden:         http.StatusForbidden,
		catalog.ErrNotApproved:       http.StatusBadRequest,
		catalog.ErrAlreadyRegistered: http.StatusConflict,
		catalog.ErrEventFull:         http.StatusBadRequest,
		errors.New("boom"):           http.StatusInternalServerError,
	}
	for err, code := range cases {
		ctx, rec := newCtx("/")
		require.NoError(t, CatalogError(ctx, "op", fmt.Errorf("wrapped: %w", err)))
		require.Equal(t, code, rec.Code, err.Error())
	}
}
