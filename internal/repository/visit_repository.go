package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cyrilbhau/visitor-kiosk/internal/model"
)

// VisitRepo provides write-once storage for visits plus the read paths the
// admin surface and the kiosk autocomplete need.  Visits are never updated
// after insertion.
type VisitRepo struct {
	db *sql.DB
}

// NewVisitRepo returns a new VisitRepo bound to the given database.
func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{db: db} }


// Create inserts a visit and populates its generated ID and timestamp.
func (r *VisitRepo) Create(ctx context.Context, v *model.Visit) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO visits (full_name, email, source, photo_key, visit_reason_id, custom_reason)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.FullName, v.Email, v.Source, v.PhotoKey, v.VisitReasonID, v.CustomReason)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	// Query back the creation timestamp so the caller sees the stored value
	return r.db.QueryRowContext(ctx,
		`SELECT created_at FROM visits WHERE id = ?`, v.ID).Scan(&v.CreatedAt)
}

// CountCustomReason counts prior visits whose stored custom reason equals
// text under case-insensitive comparison.  Stored values are normalized at
// submission time, so plain LOWER() equality is the whole match.
func (r *VisitRepo) CountCustomReason(ctx context.Context, text string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM visits WHERE custom_reason IS NOT NULL AND LOWER(custom_reason) = LOWER(?)`,
		text).Scan(&n)
	return n, err
}

// AdminVisitRow is one entry of the admin visit listing.  PhotoKey is the
// raw storage key; the handler swaps it for a presigned URL before the row
// leaves the server.
type AdminVisitRow struct {
	ID           uint64    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Source       string    `json:"source"`
	PhotoKey     *string   `json:"-"`
	ReasonLabel  *string   `json:"visit_reason_label"`
	CustomReason *string   `json:"custom_reason"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListRecent returns the most recent visits, newest first, with the linked
// reason label resolved via LEFT JOIN so unlinked visits still appear.
func (r *VisitRepo) ListRecent(ctx context.Context, limit int) ([]AdminVisitRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT v.id, v.full_name, v.email, v.source, v.photo_key, vr.label, v.custom_reason, v.created_at
		 FROM visits v
		 LEFT JOIN visit_reasons vr ON vr.id = v.visit_reason_id
		 ORDER BY v.created_at DESC, v.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AdminVisitRow, 0, limit)
	for rows.Next() {
		var row AdminVisitRow
		var photoKey, label, custom sql.NullString
		if err := rows.Scan(&row.ID, &row.FullName, &row.Email, &row.Source,
			&photoKey, &label, &custom, &row.CreatedAt); err != nil {
			return nil, err
		}
		if photoKey.Valid {
			v := photoKey.String
			row.PhotoKey = &v
		}
		if label.Valid {
			v := label.String
			row.ReasonLabel = &v
		}
		if custom.Valid {
			v := custom.String
			row.CustomReason = &v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// VisitorRow is one autocomplete suggestion: a distinct (name, email) pair
// with the time of its most recent visit.
type VisitorRow struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// SearchVisitors returns distinct (name, email) pairs whose full name
// contains q, ordered by most recent visit first.  The GROUP BY relies on
// the case-insensitive utf8mb4 collation to fold casing variants of the
// same visitor into one row.
func (r *VisitRepo) SearchVisitors(ctx context.Context, q string, limit int) ([]VisitorRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT full_name, email, MAX(created_at) AS last_seen
		 FROM visits
		 WHERE LOWER(full_name) LIKE ?
		 GROUP BY full_name, email
		 ORDER BY last_seen DESC
		 LIMIT ?`,
		"%"+strings.ToLower(q)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]VisitorRow, 0, limit)
	for rows.Next() {
		var row VisitorRow
		var lastSeen time.Time
		if err := rows.Scan(&row.FullName, &row.Email, &lastSeen); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
