package store

import (
	"context"
	"errors"
	"fmt"

	"edulearn/internal/database"
	"edulearn/internal/model"

	"github.com/jackc/pgx/v5"
)

// ErrAlreadyRegistered is returned when the (event, email) pair already exists.
var ErrAlreadyRegistered = errors.New("already registered")

const eventColumns = `id, title, description, event_date, event_time, location, type, capacity, registered,
	tags, speaker, image_url, submitted_by_email, submitted_by_name, status, is_approved, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	e := &model.Event{}
	if err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Date,
		&e.Time,
		&e.Location,
		&e.Type,
		&e.Capacity,
		&e.Registered,
		&e.Tags,
		&e.Speaker,
		&e.ImageURL,
		&e.SubmittedByEmail,
		&e.SubmittedByName,
		&e.Status,
		&e.IsApproved,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return e, nil
}

func CreateEvent(ctx context.Context, db database.DB, e *model.Event) error {
	if e.Tags == nil {
		e.Tags = []string{}
	}
	row := db.QueryRow(ctx,
		`INSERT INTO events
		    (title, description, event_date, event_time, location, type, capacity, tags,
		     speaker, image_url, submitted_by_email, submitted_by_name, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, registered, is_approved, created_at, updated_at`,
		e.Title,
		e.Description,
		e.Date,
		e.Time,
		e.Location,
		e.Type,
		e.Capacity,
		e.Tags,
		e.Speaker,
		e.ImageURL,
		e.SubmittedByEmail,
		e.SubmittedByName,
		e.Status,
	)
	if err := row.Scan(&e.ID, &e.Registered, &e.IsApproved, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return wrap("CreateEvent", err)
	}
	return nil
}

func GetEvent(ctx context.Context, db database.DB, id int) (*model.Event, error) {
	e, err := scanEvent(db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("GetEvent", err)
	}
	return e, nil
}

func ListEvents(ctx context.Context, db database.DB, f model.EventFilter) ([]model.Event, error) {
	w := &whereClause{}
	w.visibility(f.IncludeAll, f.OwnerEmail)
	if f.Type != "" {
		w.add("type = " + w.arg(f.Type))
	}
	if f.Upcoming {
		w.add("event_date >= CURRENT_DATE")
	}
	w.search(f.Search)

	rows, err := db.Query(ctx,
		`SELECT `+eventColumns+` FROM events`+w.String()+` ORDER BY event_date ASC, event_time ASC, id ASC`,
		w.args...,
	)
	if err != nil {
		return nil, wrap("ListEvents", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrap("ListEvents", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("ListEvents", err)
	}
	return events, nil
}

func SetEventStatus(ctx context.Context, db database.DB, id int, status model.ModerationStatus) error {
	tag, err := db.Exec(ctx,
		`UPDATE events SET status = $1, updated_at = now() WHERE id = $2`,
		status,
		id,
	)
	if err != nil {
		return wrap("SetEventStatus", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("SetEventStatus: %w", ErrNotFound)
	}
	return nil
}

func DeleteEvent(ctx context.Context, db database.DB, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return wrap("DeleteEvent", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeleteEvent: %w", ErrNotFound)
	}
	return nil
}

// registerSQL increments the counter and records the registration in one
// statement. The UPDATE guard re-checks capacity against the latest row
// version, and the unique constraint rejects a racing duplicate.
const registerSQL = `
WITH updated AS (
    UPDATE events SET registered = registered + 1, updated_at = now()
    WHERE id = $1
      AND status = 'approved'
      AND registered < capacity
      AND NOT EXISTS (SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_email = $2)
    RETURNING id, registered
), inserted AS (
    INSERT INTO event_registrations (event_id, user_email, user_name)
    SELECT id, $2, $3 FROM updated
    RETURNING id, event_id, user_email, user_name, registered_at
)
SELECT i.id, i.event_id, i.user_email, i.user_name, i.registered_at, u.registered
FROM inserted i JOIN updated u ON u.id = i.event_id`

// RegisterForEvent atomically claims a seat. It returns ErrNoRowsAffected when
// any guard failed and ErrAlreadyRegistered when a concurrent duplicate lost
// the race; callers use GetRegistrationState to explain a rejection.
func RegisterForEvent(ctx context.Context, db database.DB, eventID int, email, name string) (*model.EventRegistration, int, error) {
	reg := &model.EventRegistration{}
	var registered int
	err := db.QueryRow(ctx, registerSQL, eventID, email, name).Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserEmail,
		&reg.UserName,
		&reg.RegisteredAt,
		&registered,
	)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, 0, fmt.Errorf("RegisterForEvent: %w", ErrNoRowsAffected)
	case database.IsUniqueViolation(err):
		return nil, 0, fmt.Errorf("RegisterForEvent: %w", ErrAlreadyRegistered)
	case err != nil:
		return nil, 0, wrap("RegisterForEvent", err)
	}
	return reg, registered, nil
}

func GetRegistrationState(ctx context.Context, db database.DB, eventID int, email string) (*model.RegistrationState, error) {
	st := &model.RegistrationState{}
	err := db.QueryRow(ctx,
		`SELECT status, capacity, registered,
		        EXISTS (SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_email = $2)
		 FROM events WHERE id = $1`,
		eventID,
		email,
	).Scan(&st.Status, &st.Capacity, &st.Registered, &st.AlreadyRegistered)
	if errors.Is(err, pgx.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return nil, wrap("GetRegistrationState", err)
	}
	st.Found = true
	return st, nil
}

func IsRegistered(ctx context.Context, db database.DB, eventID int, email string) (bool, error) {
	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_email = $2)`,
		eventID,
		email,
	).Scan(&exists); err != nil {
		return false, wrap("IsRegistered", err)
	}
	return exists, nil
}
