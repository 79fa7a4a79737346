package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"edulearn/internal/database"
	"edulearn/internal/model"
	"edulearn/internal/store"
)

// world is an in-memory stand-in for the store functions used by Service.
type world struct {
	mu        sync.Mutex
	admins    map[string]bool
	resources map[int]*model.Resource
	events    map[int]*model.Event
	regs      map[int]map[string]bool
	nextID    int
	mutations int
}

func newWorld(admins ...string) *world {
	w := &world{
		admins:    map[string]bool{},
		resources: map[int]*model.Resource{},
		events:    map[int]*model.Event{},
		regs:      map[int]map[string]bool{},
	}
	for _, a := range admins {
		w.admins[a] = true
	}
	return w
}

func (w *world) install() func() {
	isAdminEmail = func(_ context.Context, _ database.DB, email string) (bool, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.admins[email], nil
	}
	createResource = func(_ context.Context, _ database.DB, r *model.Resource) error {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.nextID++
		r.ID = w.nextID
		r.IsApproved = r.Status == model.StatusApproved
		cp := *r
		w.resources[r.ID] = &cp
		return nil
	}
	getResource = func(_ context.Context, _ database.DB, id int) (*model.Resource, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		r, ok := w.resources[id]
		if !ok {
			return nil, fmt.Errorf("GetResource: %w", store.ErrNotFound)
		}
		cp := *r
		return &cp, nil
	}
	listResources = func(_ context.Context, _ database.DB, f model.ResourceFilter) ([]model.Resource, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		out := []model.Resource{}
		for id := 1; id <= w.nextID; id++ {
			r, ok := w.resources[id]
			if !ok {
				continue
			}
			owner := r.SubmittedByEmail != nil && *r.SubmittedByEmail == f.OwnerEmail && f.OwnerEmail != ""
			if !f.IncludeAll && r.Status != model.StatusApproved && !owner {
				continue
			}
			out = append(out, *r)
		}
		return out, nil
	}
	setResourceStatus = func(_ context.Context, _ database.DB, id int, st model.ModerationStatus) error {
		w.mu.Lock()
		defer w.mu.Unlock()
		r, ok := w.resources[id]
		if !ok {
			return fmt.Errorf("SetResourceStatus: %w", store.ErrNotFound)
		}
		w.mutations++
		r.Status, r.IsApproved = st, st == model.StatusApproved
		return nil
	}
	deleteResource = func(_ context.Context, _ database.DB, id int) error {
		w.mu.Lock()
		defer w.mu.Unlock()
		if _, ok := w.resources[id]; !ok {
			return fmt.Errorf("DeleteResource: %w", store.ErrNotFound)
		}
		w.mutations++
		delete(w.resources, id)
		return nil
	}
	createEvent = func(_ context.Context, _ database.DB, e *model.Event) error {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.nextID++
		e.ID = w.nextID
		e.IsApproved = e.Status == model.StatusApproved
		cp := *e
		w.events[e.ID] = &cp
		return nil
	}
	getEvent = func(_ context.Context, _ database.DB, id int) (*model.Event, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		e, ok := w.events[id]
		if !ok {
			return nil, fmt.Errorf("GetEvent: %w", store.ErrNotFound)
		}
		cp := *e
		return &cp, nil
	}
	listEvents = func(_ context.Context, _ database.DB, f model.EventFilter) ([]model.Event, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		out := []model.Event{}
		for id := 1; id <= w.nextID; id++ {
			e, ok := w.events[id]
			if !ok {
				continue
			}
			if !f.IncludeAll && e.Status != model.StatusApproved && !(f.OwnerEmail != "" && e.SubmittedByEmail == f.OwnerEmail) {
				continue
			}
			out = append(out, *e)
		}
		return out, nil
	}
	setEventStatus = func(_ context.Context, _ database.DB, id int, st model.ModerationStatus) error {
		w.mu.Lock()
		defer w.mu.Unlock()
		e, ok := w.events[id]
		if !ok {
			return fmt.Errorf("SetEventStatus: %w", store.ErrNotFound)
		}
		w.mutations++
		e.Status, e.IsApproved = st, st == model.StatusApproved
		return nil
	}
	deleteEvent = func(_ context.Context, _ database.DB, id int) error {
		w.mu.Lock()
		defer w.mu.Unlock()
		if _, ok := w.events[id]; !ok {
			return fmt.Errorf("DeleteEvent: %w", store.ErrNotFound)
		}
		w.mutations++
		delete(w.events, id)
		return nil
	}
	// registerForEvent applies the same guards as the SQL statement atomically.
	registerForEvent = func(_ context.Context, _ database.DB, id int, email, name string) (*model.EventRegistration, int, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		e, ok := w.events[id]
		if !ok || e.Status != model.StatusApproved || e.Registered >= e.Capacity || w.regs[id][email] {
			return nil, 0, fmt.Errorf("RegisterForEvent: %w", store.ErrNoRowsAffected)
		}
		if w.regs[id] == nil {
			w.regs[id] = map[string]bool{}
		}
		w.regs[id][email] = true
		e.Registered++
		return &model.EventRegistration{ID: len(w.regs[id]), EventID: id, UserEmail: email, UserName: name, RegisteredAt: time.Now()}, e.Registered, nil
	}
	getRegistrationState = func(_ context.Context, _ database.DB, id int, email string) (*model.RegistrationState, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		e, ok := w.events[id]
		if !ok {
			return &model.RegistrationState{}, nil
		}
		return &model.RegistrationState{
			Found:             true,
			Status:            e.Status,
			Capacity:          e.Capacity,
			Registered:        e.Registered,
			AlreadyRegistered: w.regs[id][email],
		}, nil
	}
	isRegistered = func(_ context.Context, _ database.DB, id int, email string) (bool, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.regs[id][email], nil
	}

	return func() {
		isAdminEmail = store.IsAdminEmail
		createResource = store.CreateResource
		getResource = store.GetResource
		listResources = store.ListResources
		setResourceStatus = store.SetResourceStatus
		deleteResource = store.DeleteResource
		createEvent = store.CreateEvent
		getEvent = store.GetEvent
		listEvents = store.ListEvents
		setEventStatus = store.SetEventStatus
		deleteEvent = store.DeleteEvent
		registerForEvent = store.RegisterForEvent
		getRegistrationState = store.GetRegistrationState
		isRegistered = store.IsRegistered
	}
}

func (w *world) addEvent(capacity int, status model.ModerationStatus) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	w.events[w.nextID] = &model.Event{ID: w.nextID, Title: "e", Capacity: capacity, Status: status, SubmittedByEmail: "owner@example.com"}
	return w.nextID
}

func sp(s string) *string { return &s }

