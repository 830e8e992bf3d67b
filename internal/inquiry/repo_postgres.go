package inquiry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PostgresRepo persists inquiries in a single table with JSONB columns for
// tags and notes.
//
// It assumes the following table exists:
//
//	CREATE TABLE inquiries (
//	    id                UUID PRIMARY KEY,
//	    name              TEXT NOT NULL,
//	    email             TEXT NOT NULL,
//	    phone             TEXT NOT NULL DEFAULT '',
//	    subject           TEXT NOT NULL,
//	    message           TEXT NOT NULL,
//	    service           TEXT NOT NULL DEFAULT '',
//	    status            TEXT NOT NULL,
//	    priority          TEXT NOT NULL,
//	    source            TEXT NOT NULL,
//	    assigned_to       TEXT NOT NULL DEFAULT '',
//	    response          TEXT NOT NULL DEFAULT '',
//	    response_date     TIMESTAMPTZ,
//	    tags              JSONB NOT NULL DEFAULT '[]',
//	    notes             JSONB NOT NULL DEFAULT '[]',
//	    follow_up_date    TIMESTAMPTZ,
//	    last_contacted_at TIMESTAMPTZ,
//	    created_at        TIMESTAMPTZ NOT NULL,
//	    updated_at        TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX inquiries_status_created_at ON inquiries (status, created_at DESC);
//	CREATE INDEX inquiries_email ON inquiries (email);
//	CREATE INDEX inquiries_assigned_to ON inquiries (assigned_to);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const inquiryColumns = `id, name, email, phone, subject, message, service, status, priority, source,
assigned_to, response, response_date, tags, notes, follow_up_date, last_contacted_at, created_at, updated_at`

func (r *PostgresRepo) Insert(ctx context.Context, inq Inquiry) error {
	const q = `
INSERT INTO inquiries (
  id, name, email, phone, subject, message, service, status, priority, source,
  assigned_to, response, response_date, tags, notes, follow_up_date, last_contacted_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19
)
`
	tags, notes, err := encodeJSONFields(inq)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q,
		inq.ID,
		inq.Name,
		inq.Email,
		inq.Phone,
		inq.Subject,
		inq.Message,
		inq.Service,
		inq.Status,
		inq.Priority,
		inq.Source,
		inq.AssignedTo,
		inq.Response,
		inq.ResponseDate,
		tags,
		notes,
		inq.FollowUpDate,
		inq.LastContactedAt,
		inq.CreatedAt,
		inq.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (Inquiry, error) {
	q := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE id = $1`
	inq, err := scanInquiry(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Inquiry{}, ErrNotFound
		}
		return Inquiry{}, err
	}
	return inq, nil
}

// sortColumns maps the service-level sort field names onto table columns.
// Keys must stay in lockstep with the service's sortable field whitelist.
var sortColumns = map[string]string{
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
	"name":            "name",
	"email":           "email",
	"subject":         "subject",
	"status":          "status",
	"priority":        "priority",
	"lastContactedAt": "last_contacted_at",
	"followUpDate":    "follow_up_date",
}

func (r *PostgresRepo) Find(ctx context.Context, q Query) ([]Inquiry, int, error) {
	var where []string
	var args []any

	addFilter := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	addFilter("status", q.Status)
	addFilter("priority", q.Priority)
	addFilter("assigned_to", q.AssignedTo)

	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(name ILIKE $%d OR email ILIKE $%d OR subject ILIKE $%d OR message ILIKE $%d)", n, n, n, n))
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM inquiries"+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}

	args = append(args, q.Limit, q.Offset)
	sel := fmt.Sprintf(
		"SELECT %s FROM inquiries%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		inquiryColumns, cond, col, dir, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, sel, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Inquiry{}
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inq)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresRepo) Replace(ctx context.Context, inq Inquiry) error {
	const q = `
UPDATE inquiries SET
  name = $2, email = $3, phone = $4, subject = $5, message = $6, service = $7,
  status = $8, priority = $9, source = $10, assigned_to = $11, response = $12,
  response_date = $13, tags = $14, notes = $15, follow_up_date = $16,
  last_contacted_at = $17, updated_at = $18
WHERE id = $1
`
	tags, notes, err := encodeJSONFields(inq)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q,
		inq.ID,
		inq.Name,
		inq.Email,
		inq.Phone,
		inq.Subject,
		inq.Message,
		inq.Service,
		inq.Status,
		inq.Priority,
		inq.Source,
		inq.AssignedTo,
		inq.Response,
		inq.ResponseDate,
		tags,
		notes,
		inq.FollowUpDate,
		inq.LastContactedAt,
		inq.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inquiries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Stats(ctx context.Context, now time.Time) (Stats, error) {
	st := Stats{
		ByStatus:   make(map[Status]int),
		ByPriority: make(map[Priority]int),
		BySource:   make(map[Source]int),
	}

	const totals = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE response <> ''),
       COALESCE(AVG(EXTRACT(EPOCH FROM ($1::timestamptz - created_at)) / 86400), 0)
FROM inquiries
`
	if err := r.db.QueryRowContext(ctx, totals, now).Scan(&st.Total, &st.Responded, &st.AverageAgeDays); err != nil {
		return Stats{}, err
	}

	group := func(col string, assign func(key string, n int)) error {
		rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT %s, COUNT(*) FROM inquiries GROUP BY %s", col, col))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				return err
			}
			assign(key, n)
		}
		return rows.Err()
	}

	if err := group("status", func(k string, n int) { st.ByStatus[Status(k)] = n }); err != nil {
		return Stats{}, err
	}
	if err := group("priority", func(k string, n int) { st.ByPriority[Priority(k)] = n }); err != nil {
		return Stats{}, err
	}
	if err := group("source", func(k string, n int) { st.BySource[Source(k)] = n }); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// likeEscaper neutralizes LIKE metacharacters so a search term always matches
// as a literal substring, the same way the memory repository matches.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInquiry(row rowScanner) (Inquiry, error) {
	var inq Inquiry
	var tags, notes []byte
	err := row.Scan(
		&inq.ID,
		&inq.Name,
		&inq.Email,
		&inq.Phone,
		&inq.Subject,
		&inq.Message,
		&inq.Service,
		&inq.Status,
		&inq.Priority,
		&inq.Source,
		&inq.AssignedTo,
		&inq.Response,
		&inq.ResponseDate,
		&tags,
		&notes,
		&inq.FollowUpDate,
		&inq.LastContactedAt,
		&inq.CreatedAt,
		&inq.UpdatedAt,
	)
	if err != nil {
		return Inquiry{}, err
	}
	if err := json.Unmarshal(tags, &inq.Tags); err != nil {
		return Inquiry{}, fmt.Errorf("decode tags for %s: %w", inq.ID, err)
	}
	if err := json.Unmarshal(notes, &inq.Notes); err != nil {
		return Inquiry{}, fmt.Errorf("decode notes for %s: %w", inq.ID, err)
	}
	return inq, nil
}

func encodeJSONFields(inq Inquiry) (tags, notes []byte, err error) {
	if inq.Tags == nil {
		inq.Tags = []string{}
	}
	if inq.Notes == nil {
		inq.Notes = []Note{}
	}
	tags, err = json.Marshal(inq.Tags)
	if err != nil {
		return nil, nil, err
	}
	notes, err = json.Marshal(inq.Notes)
	if err != nil {
		return nil, nil, err
	}
	return tags, notes, nil
}
