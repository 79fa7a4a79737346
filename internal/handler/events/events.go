// Package events serves the moderated event catalog and seat registration.
package events

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"edulearn/internal/api"
	"edulearn/internal/catalog"
	"edulearn/internal/handler"
	"edulearn/internal/middleware"
	"edulearn/internal/model"

	"github.com/labstack/echo/v4"
)

type Catalog interface {
	SubmitEvent(ctx context.Context, by model.Submitter, in catalog.EventInput) (*model.Event, error)
	ListEvents(ctx context.Context, f model.EventFilter, viewerEmail string, includePending bool) ([]model.Event, error)
	GetEvent(ctx context.Context, id int, viewerEmail string) (*model.Event, error)
	ApproveEvent(ctx context.Context, callerEmail string, id int) error
	RejectEvent(ctx context.Context, callerEmail string, id int) error
	DeleteEvent(ctx context.Context, callerEmail string, id int) error
	Register(ctx context.Context, eventID int, email, name string) (*catalog.Registration, error)
	IsRegistered(ctx context.Context, eventID int, email string) (bool, error)
}

// ListHandler 列出活動；upcoming=true 只回傳今天以後的活動
// @Summary     List events
// @Tags        events
// @Produce     json
// @Param       type           query string false "workshop|hackathon|seminar|meetup|competition|webinar"
// @Param       search         query string false "標題、描述或標籤"
// @Param       upcoming       query bool   false "只列出未來活動"
// @Param       includePending query bool   false "管理員看全部，其他人多看自己的投稿"
// @Success     200 {array}  model.Event
// @Failure     500 {object} api.ErrorResponse
// @Router      /events [get]
func ListHandler(cat Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		upcoming, _ := strconv.ParseBool(c.QueryParam("upcoming"))
		f := model.EventFilter{
			Type:     strings.TrimSpace(c.QueryParam("type")),
			Search:   c.QueryParam("search"),
			Upcoming: upcoming,
		}
		list, err := cat.ListEvents(c.Request().Context(), f, handler.ViewerEmail(c), handler.IncludePending(c))
		if err != nil {
			return handler.CatalogError(c, "list events", err)
		}
		if list == nil {
			list = []model.Event{}
		}
		return c.JSON(http.StatusOK, list)
	}
}

// GetHandler
// @Summary     Get event
// @Tags        events
// @Produce     json
// @Param       id  path     int true "event id"
// @Success     200 {object} model.Event
// @Failure     404 {object} api.ErrorResponse
// @Router      /events/{id} [get]
func GetHandler(cat Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.PathID(c)
		if !ok {
			return nil
		}
		ev, err := cat.GetEvent(c.Request().Context(), id, handler.ViewerEmail(c))
		if err != nil {
			return handler.CatalogError(c, "get event", err)
		}
		return c.JSON(http.StatusOK, ev)
	}
}

// SubmitHandler 投稿活動
// @Summary     Submit event
// @Tags        events
// @Accept      json
// @Produce     json
// @Param       body body     api.CreateEventRequest true "活動內容"
// @Success     201  {object} model.Event
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Router      /events [post]
func SubmitHandler(cat Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreateEventRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}
		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid date"})
		}
		sess := middleware.CurrentSession(c)
		ev, err := cat.SubmitEvent(c.Request().Context(),
			model.Submitter{Email: sess.Email, Name: sess.Name},
			catalog.EventInput{
				Title:       req.Title,
				Description: req.Description,
				Date:        date,
				Time:        req.Time,
				Location:    req.Location,
				Type:        req.Type,
				Capacity:    req.Capacity,
				Tags:        req.Tags,
				Speaker:     req.Speaker,
				ImageURL:    req.ImageURL,
			})
		if err != nil {
			return handler.CatalogError(c, "submit event", err)
		}
		return c.JSON(http.StatusCreated, ev)
	}
}

// ApproveHandler
// @Summary     Approve event
// @Tags        events
// @Param       id path int true "event id"
// @Success     200 {object} api.MessageResponse
// @Failure     403 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Router      /events/{id}/approve [post]
func ApproveHandler(cat Catalog) echo.HandlerFunc {
	return moderate(cat.ApproveEvent, "approved")
}

// RejectHandler
// @Summary     Reject event
// @Tags        events
// @Param       id path int true "event id"
// @Success     200 {object} api.MessageResponse
// @Failure     403 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Router      /events/{id}/reject [post]
func RejectHandler(cat Catalog) echo.HandlerFunc {
	return moderate(cat.RejectEvent, "rejected")
}

// DeleteHandler
// @Summary     Delete event
// @Tags        events
// @Param       id path int true "event id"
// @Success     200 {object} api.MessageResponse
// @Failure     403 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Router      /events/{id} [delete]
func DeleteHandler(cat Catalog) echo.HandlerFunc {
	return moderate(cat.DeleteEvent, "deleted")
}

func moderate(op func(ctx context.Context, callerEmail string, id int) error, done string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.PathID(c)
		if !ok {
			return nil
		}
		if err := op(c.Request().Context(), handler.ViewerEmail(c), id); err != nil {
			return handler.CatalogError(c, "moderate event", err)
		}
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "event " + done})
	}
}

// RegisterHandler 報名活動；名額與重複報名由單一 SQL 判斷
// @Summary     Register for event
// @Tags        events
// @Produce     json
// @Param       id  path     int true "event id"
// @Success     201 {object} catalog.Registration
// @Failure     400 {object} api.ErrorResponse "not approved 或 event is full"
// @Failure     401 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     409 {object} api.ErrorResponse
// @Router      /events/{id}/register [post]
func RegisterHandler(cat Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.PathID(c)
		if !ok {
			return nil
		}
		sess := middleware.CurrentSession(c)
		reg, err := cat.Register(c.Request().Context(), id, sess.Email, sess.Name)
		if err != nil {
			return handler.CatalogError(c, "register for event", err)
		}
		return c.JSON(http.StatusCreated, reg)
	}
}

// RegistrationHandler
// @Summary     Registration status
// @Tags        events
// @Produce     json
// @Param       id  path     int true "event id"
// @Success     200 {object} api.RegistrationStatusResponse
// @Failure     401 {object} api.ErrorResponse
// @Router      /events/{id}/registration [get]
func RegistrationHandler(cat Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.PathID(c)
		if !ok {
			return nil
		}
		sess := middleware.CurrentSession(c)
		registered, err := cat.IsRegistered(c.Request().Context(), id, sess.Email)
		if err != nil {
			return handler.CatalogError(c, "registration status", err)
		}
		return c.JSON(http.StatusOK, api.RegistrationStatusResponse{Registered: registered})
	}
}
