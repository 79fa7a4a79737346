package catalog

import (
	"context"
	"fmt"

	"edulearn/internal/model"
	"edulearn/internal/store"
)

var (
	createResource    = store.CreateResource
	getResource       = store.GetResource
	listResources     = store.ListResources
	setResourceStatus = store.SetResourceStatus
	deleteResource    = store.DeleteResource
)

type ResourceInput struct {
	Title       string
	Description string
	Level       string
	Course      string
	Tags        []string
	Type        string
	Author      string
	Rating      float64
	Link        string
}

func (s *Service) SubmitResource(ctx context.Context, by model.Submitter, in ResourceInput) (*model.Resource, error) {
	status, err := s.initialStatus(ctx, by.Email)
	if err != nil {
		return nil, fmt.Errorf("SubmitResource: %w", err)
	}
	r := &model.Resource{
		Title:       s.clean(in.Title),
		Description: s.clean(in.Description),
		Level:       in.Level,
		Course:      in.Course,
		Tags:        s.cleanTags(in.Tags),
		Type:        in.Type,
		Author:      s.clean(in.Author),
		Rating:      in.Rating,
		Link:        in.Link,
		Status:      status,
	}
	if by.Email != "" {
		email, name := by.Email, s.clean(by.Name)
		r.SubmittedByEmail, r.SubmittedByName = &email, &name
	}
	if err := createResource(ctx, s.db, r); err != nil {
		return nil, fmt.Errorf("SubmitResource: %w", err)
	}
	return r, nil
}

// ListResources applies the filter; includePending widens the result to
// everything for admins and to the viewer's own submissions otherwise.
func (s *Service) ListResources(ctx context.Context, f model.ResourceFilter, viewerEmail string, includePending bool) ([]model.Resource, error) {
	all, owner, err := s.visibility(ctx, viewerEmail, includePending)
	if err != nil {
		return nil, fmt.Errorf("ListResources: %w", err)
	}
	f.IncludeAll, f.OwnerEmail = all, owner
	return listResources(ctx, s.db, f)
}

// GetResource hides non-approved rows from everyone but admins and the submitter.
func (s *Service) GetResource(ctx context.Context, id int, viewerEmail string) (*model.Resource, error) {
	r, err := getResource(ctx, s.db, id)
	if err != nil {
		return nil, notFound(err)
	}
	owner := ""
	if r.SubmittedByEmail != nil {
		owner = *r.SubmittedByEmail
	}
	ok, err := s.canView(ctx, r.Status, owner, viewerEmail)
	if err != nil {
		return nil, fmt.Errorf("GetResource: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *Service) ApproveResource(ctx context.Context, callerEmail string, id int) error {
	return s.moderate(ctx, callerEmail, "ApproveResource", func() error {
		return setResourceStatus(ctx, s.db, id, model.StatusApproved)
	})
}

func (s *Service) RejectResource(ctx context.Context, callerEmail string, id int) error {
	return s.moderate(ctx, callerEmail, "RejectResource", func() error {
		return setResourceStatus(ctx, s.db, id, model.StatusRejected)
	})
}

func (s *Service) DeleteResource(ctx context.Context, callerEmail string, id int) error {
	return s.moderate(ctx, callerEmail, "DeleteResource", func() error {
		return deleteResource(ctx, s.db, id)
	})
}
