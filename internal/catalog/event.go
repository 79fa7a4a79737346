package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edulearn/internal/model"
	"edulearn/internal/store"
)

var (
	createEvent          = store.CreateEvent
	getEvent             = store.GetEvent
	listEvents           = store.ListEvents
	setEventStatus       = store.SetEventStatus
	deleteEvent          = store.DeleteEvent
	registerForEvent     = store.RegisterForEvent
	getRegistrationState = store.GetRegistrationState
	isRegistered         = store.IsRegistered
)

type EventInput struct {
	Title       string
	Description string
	Date        time.Time
	Time        string
	Location    string
	Type        string
	Capacity    int
	Tags        []string
	Speaker     *string
	ImageURL    *string
}

// Registration is a successful seat claim with the updated counter.
type Registration struct {
	model.EventRegistration
	Registered int `json:"registered"`
}

func (s *Service) SubmitEvent(ctx context.Context, by model.Submitter, in EventInput) (*model.Event, error) {
	status, err := s.initialStatus(ctx, by.Email)
	if err != nil {
		return nil, fmt.Errorf("SubmitEvent: %w", err)
	}
	e := &model.Event{
		Title:            s.clean(in.Title),
		Description:      s.clean(in.Description),
		Date:             in.Date,
		Time:             in.Time,
		Location:         s.clean(in.Location),
		Type:             in.Type,
		Capacity:         in.Capacity,
		Tags:             s.cleanTags(in.Tags),
		Speaker:          s.cleanPtr(in.Speaker),
		ImageURL:         in.ImageURL,
		SubmittedByEmail: by.Email,
		SubmittedByName:  s.clean(by.Name),
		Status:           status,
	}
	if err := createEvent(ctx, s.db, e); err != nil {
		return nil, fmt.Errorf("SubmitEvent: %w", err)
	}
	return e, nil
}

func (s *Service) ListEvents(ctx context.Context, f model.EventFilter, viewerEmail string, includePending bool) ([]model.Event, error) {
	all, owner, err := s.visibility(ctx, viewerEmail, includePending)
	if err != nil {
		return nil, fmt.Errorf("ListEvents: %w", err)
	}
	f.IncludeAll, f.OwnerEmail = all, owner
	return listEvents(ctx, s.db, f)
}

func (s *Service) GetEvent(ctx context.Context, id int, viewerEmail string) (*model.Event, error) {
	e, err := getEvent(ctx, s.db, id)
	if err != nil {
		return nil, notFound(err)
	}
	ok, err := s.canView(ctx, e.Status, e.SubmittedByEmail, viewerEmail)
	if err != nil {
		return nil, fmt.Errorf("GetEvent: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Service) ApproveEvent(ctx context.Context, callerEmail string, id int) error {
	return s.moderate(ctx, callerEmail, "ApproveEvent", func() error {
		return setEventStatus(ctx, s.db, id, model.StatusApproved)
	})
}

func (s *Service) RejectEvent(ctx context.Context, callerEmail string, id int) error {
	return s.moderate(ctx, callerEmail, "RejectEvent", func() error {
		return setEventStatus(ctx, s.db, id, model.StatusRejected)
	})
}

func (s *Service) DeleteEvent(ctx context.Context, callerEmail string, id int) error {
	return s.moderate(ctx, callerEmail, "DeleteEvent", func() error {
		return deleteEvent(ctx, s.db, id)
	})
}

// Register claims a seat with a single conditional statement. When it matches
// nothing, the current row explains why: missing, not approved, already
// registered (checked before capacity), or full.
func (s *Service) Register(ctx context.Context, eventID int, email, name string) (*Registration, error) {
	for attempt := 0; attempt < 2; attempt++ {
		reg, registered, err := registerForEvent(ctx, s.db, eventID, email, name)
		switch {
		case err == nil:
			return &Registration{EventRegistration: *reg, Registered: registered}, nil
		case errors.Is(err, store.ErrAlreadyRegistered):
			return nil, ErrAlreadyRegistered
		case !errors.Is(err, store.ErrNoRowsAffected):
			return nil, fmt.Errorf("Register: %w", err)
		}

		st, err := getRegistrationState(ctx, s.db, eventID, email)
		if err != nil {
			return nil, fmt.Errorf("Register: %w", err)
		}
		switch {
		case !st.Found:
			return nil, ErrNotFound
		case st.Status != model.StatusApproved:
			return nil, ErrNotApproved
		case st.AlreadyRegistered:
			return nil, ErrAlreadyRegistered
		case st.Registered >= st.Capacity:
			return nil, ErrEventFull
		}
		// a seat was freed between the two statements; try once more
	}
	return nil, ErrEventFull
}

func (s *Service) IsRegistered(ctx context.Context, eventID int, email string) (bool, error) {
	ok, err := isRegistered(ctx, s.db, eventID, email)
	if err != nil {
		return false, fmt.Errorf("IsRegistered: %w", err)
	}
	return ok, nil
}
