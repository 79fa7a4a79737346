// Package resources serves the moderated learning-resource catalog.
package resources

import (
	"context"
	"net/http"
	"strings"

	"edulearn/internal/api"
	"edulearn/internal/catalog"
	"edulearn/internal/handler"
	"edulearn/internal/middleware"
	"edulearn/internal/model"

	"github.com/labstack/echo/v4"
)

type Catalog interface {
	SubmitResource(ctx context.Context, by model.Submitter, in catalog.ResourceInput) (*model.Resource, error)
	ListResources(ctx context.Context, f model.ResourceFilter, viewerEmail string, includePending bool) ([]model.Resource, error)
	GetResource(ctx context.Context, id int, viewerEmail string) (*model.Resource, error)
	ApproveResource(ctx context.Context, callerEmail string, id int) error
	RejectResource(ctx context.Context, callerEmail string, id int) error
	DeleteResource(ctx context.Context, callerEmail string, id int) error
}

// ListHandler 列出資源；預設只有已核准的項目
// @Summary     List resources
// @Tags        resources
// @Produce     json
// @Param       type           query string false "video|article|tutorial|course|tool"
// @Param       level          query string false "beginner|intermediate|advanced"
// @Param       course         query string false "課程分類"
// @Param       search         query string false "標題、描述或標籤"
// @Param       includePending query bool   false "管理員看全部，其他人多看自己的投稿"
// @Success     200 {array}  model.Resource
// @Failure     500 {object} api.ErrorResponse
// @Router      /resources [get]
func ListHandler(cat Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		f := model.ResourceFilter{
			Type:   strings.TrimSpace(c.QueryParam("type")),
			Level:  strings.TrimSpace(c.QueryParam("level")),
			Course: strings.TrimSpace(c.QueryParam("course")),
			Search: c.QueryParam("search"),
		}
		list, err := cat.ListResources(c.Request().Context(), f, handler.ViewerEmail(c), handler.IncludePending(c))
		if err != nil {
			return handler.CatalogError(c, "list resources", err)
		}
		if list == nil {
			list = []model.Resource{}
		}
		return c.JSON(http.StatusOK, list)
	}
}

// GetHandler
// @Summary     Get resource
// @Tags        resources
// @Produce     json
// @Param       id  path     int true "resource id"
// @Success     200 {object} model.Resource
// @Failure     404 {object} api.ErrorResponse
// @Router      /resources/{id} [get]
func GetHandler(cat Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.PathID(c)
		if !ok {
			return nil
		}
		r, err := cat.GetResource(c.Request().Context(), id, handler.ViewerEmail(c))
		if err != nil {
			return handler.CatalogError(c, "get resource", err)
		}
		return c.JSON(http.StatusOK, r)
	}
}

// SubmitHandler 投稿資源；管理員投稿直接核准，其他人為 pending
// @Summary     Submit resource
// @Tags        resources
// @Accept      json
// @Produce     json
// @Param       body body     api.CreateResourceRequest true "資源內容"
// @Success     201  {object} model.Resource
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Router      /resources [post]
func SubmitHandler(cat Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreateResourceRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}
		sess := middleware.CurrentSession(c)
		r, err := cat.SubmitResource(c.Request().Context(),
			model.Submitter{Email: sess.Email, Name: sess.Name},
			catalog.ResourceInput{
				Title:       req.Title,
				Description: req.Description,
				Level:       req.Level,
				Course:      req.Course,
				Tags:        req.Tags,
				Type:        req.Type,
				Author:      req.Author,
				Rating:      req.Rating,
				Link:        req.Link,
			})
		if err != nil {
			return handler.CatalogError(c, "submit resource", err)
		}
		return c.JSON(http.StatusCreated, r)
	}
}

// ApproveHandler
// @Summary     Approve resource
// @Tags        resources
// @Param       id path int true "resource id"
// @Success     200 {object} api.MessageResponse
// @Failure     403 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Router      /resources/{id}/approve [post]
func ApproveHandler(cat Catalog) echo.HandlerFunc {
	return moderate(cat.ApproveResource, "approved")
}

// RejectHandler
// @Summary     Reject resource
// @Tags        resources
// @Param       id path int true "resource id"
// @Success     200 {object} api.MessageResponse
// @Failure     403 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Router      /resources/{id}/reject [post]
func RejectHandler(cat Catalog) echo.HandlerFunc {
	return moderate(cat.RejectResource, "rejected")
}

// DeleteHandler
// @Summary     Delete resource
// @Tags        resources
// @Param       id path int true "resource id"
// @Success     200 {object} api.MessageResponse
// @Failure     403 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Router      /resources/{id} [delete]
func DeleteHandler(cat Catalog) echo.HandlerFunc {
	return moderate(cat.DeleteResource, "deleted")
}

func moderate(op func(ctx context.Context, callerEmail string, id int) error, done string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.PathID(c)
		if !ok {
			return nil
		}
		if err := op(c.Request().Context(), handler.ViewerEmail(c), id); err != nil {
			return handler.CatalogError(c, "moderate resource", err)
		}
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "resource " + done})
	}
}
