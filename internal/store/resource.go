package store

import (
	"context"
	"fmt"

	"edulearn/internal/database"
	"edulearn/internal/model"

	"github.com/jackc/pgx/v5"
)

const resourceColumns = `id, title, description, level, course, tags, type, author, rating, link,
	submitted_by_email, submitted_by_name, status, is_approved, created_at, updated_at`

func scanResource(row pgx.Row) (*model.Resource, error) {
	r := &model.Resource{}
	if err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Description,
		&r.Level,
		&r.Course,
		&r.Tags,
		&r.Type,
		&r.Author,
		&r.Rating,
		&r.Link,
		&r.SubmittedByEmail,
		&r.SubmittedByName,
		&r.Status,
		&r.IsApproved,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return r, nil
}

func CreateResource(ctx context.Context, db database.DB, r *model.Resource) error {
	if r.Tags == nil {
		r.Tags = []string{}
	}
	row := db.QueryRow(ctx,
		`INSERT INTO resources
		    (title, description, level, course, tags, type, author, rating, link,
		     submitted_by_email, submitted_by_name, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, is_approved, created_at, updated_at`,
		r.Title,
		r.Description,
		r.Level,
		r.Course,
		r.Tags,
		r.Type,
		r.Author,
		r.Rating,
		r.Link,
		r.SubmittedByEmail,
		r.SubmittedByName,
		r.Status,
	)
	if err := row.Scan(&r.ID, &r.IsApproved, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return wrap("CreateResource", err)
	}
	return nil
}

func GetResource(ctx context.Context, db database.DB, id int) (*model.Resource, error) {
	r, err := scanResource(db.QueryRow(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("GetResource", err)
	}
	return r, nil
}

func ListResources(ctx context.Context, db database.DB, f model.ResourceFilter) ([]model.Resource, error) {
	w := &whereClause{}
	w.visibility(f.IncludeAll, f.OwnerEmail)
	if f.Type != "" {
		w.add("type = " + w.arg(f.Type))
	}
	if f.Level != "" {
		w.add("level = " + w.arg(f.Level))
	}
	if f.Course != "" {
		w.add("course = " + w.arg(f.Course))
	}
	w.search(f.Search)

	rows, err := db.Query(ctx,
		`SELECT `+resourceColumns+` FROM resources`+w.String()+` ORDER BY created_at DESC, id DESC`,
		w.args...,
	)
	if err != nil {
		return nil, wrap("ListResources", err)
	}
	defer rows.Close()

	resources := []model.Resource{}
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, wrap("ListResources", err)
		}
		resources = append(resources, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("ListResources", err)
	}
	return resources, nil
}

func SetResourceStatus(ctx context.Context, db database.DB, id int, status model.ModerationStatus) error {
	tag, err := db.Exec(ctx,
		`UPDATE resources SET status = $1, updated_at = now() WHERE id = $2`,
		status,
		id,
	)
	if err != nil {
		return wrap("SetResourceStatus", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("SetResourceStatus: %w", ErrNotFound)
	}
	return nil
}

func DeleteResource(ctx context.Context, db database.DB, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return wrap("DeleteResource", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeleteResource: %w", ErrNotFound)
	}
	return nil
}
