package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNoRowsAffected signals that a guarded statement matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
)

// wrap maps pgx.ErrNoRows to ErrNotFound and prefixes the caller name.
func wrap(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// whereClause collects AND-ed conditions with positional arguments.
type whereClause struct {
	conds []string
	args  []any
}

// arg registers v and returns its placeholder.
func (w *whereClause) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereClause) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// visibility restricts moderated rows to approved ones unless includeAll is
// set; ownerEmail also exposes that submitter's own rows.
func (w *whereClause) visibility(includeAll bool, ownerEmail string) {
	switch {
	case includeAll:
	case ownerEmail != "":
		w.add("(status = 'approved' OR submitted_by_email = " + w.arg(ownerEmail) + ")")
	default:
		w.add("status = 'approved'")
	}
}

// search matches title, description or an exact tag.
func (w *whereClause) search(term string) {
	term = strings.Join(strings.Fields(term), " ")
	if term == "" {
		return
	}
	like := w.arg("%" + escapeLike(term) + "%")
	exact := w.arg(term)
	w.add("(title ILIKE " + like + " OR description ILIKE " + like + " OR " + exact + " = ANY(tags))")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
