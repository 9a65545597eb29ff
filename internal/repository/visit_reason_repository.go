package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cyrilbhau/visitor-kiosk/internal/model"
)

// maxFeatured caps how many reasons may be effectively featured at once.
const maxFeatured = 3

// VisitReasonRepo provides CRUD operations for visit reasons.  Reasons are
// never hard-deleted; admins deactivate them instead so historical visits
// keep a valid link.  All timestamp fields are stored in UTC.
type VisitReasonRepo struct {
	db *sql.DB
}

// NewVisitReasonRepo returns a new VisitReasonRepo bound to the given database.
func NewVisitReasonRepo(db *sql.DB) *VisitReasonRepo { return &VisitReasonRepo{db: db} }


const reasonCols = `id, label, slug, active, sort_order, source, category, featured, featured_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReason(row rowScanner) (model.VisitReason, error) {
	var rec model.VisitReason
	var category sql.NullString
	var featuredAt sql.NullTime
	err := row.Scan(
		&rec.ID, &rec.Label, &rec.Slug, &rec.Active, &rec.SortOrder,
		&rec.Source, &category, &rec.Featured, &featuredAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return model.VisitReason{}, err
	}
	if category.Valid {
		v := category.String
		rec.Category = &v
	}
	if featuredAt.Valid {
		t := featuredAt.Time
		rec.FeaturedAt = &t
	}
	return rec, nil
}

// ListActive returns the reasons visitors may choose from: active rows
// ordered by sort_order ascending, ties broken by label.
func (r *VisitReasonRepo) ListActive(ctx context.Context) ([]model.VisitReason, error) {
	return r.list(ctx, `SELECT `+reasonCols+` FROM visit_reasons WHERE active = 1 ORDER BY sort_order ASC, label ASC`)
}

// ListAll returns every reason regardless of active state, in the same
// display order.  Used by the admin surface.
func (r *VisitReasonRepo) ListAll(ctx context.Context) ([]model.VisitReason, error) {
	return r.list(ctx, `SELECT `+reasonCols+` FROM visit_reasons ORDER BY sort_order ASC, label ASC`)
}

func (r *VisitReasonRepo) list(ctx context.Context, query string) ([]model.VisitReason, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.VisitReason, 0)
	for rows.Next() {
		rec, err := scanReason(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetByID fetches a single reason or ErrReasonNotFound.
func (r *VisitReasonRepo) GetByID(ctx context.Context, id uint64) (model.VisitReason, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reasonCols+` FROM visit_reasons WHERE id = ?`, id)
	rec, err := scanReason(row)
	if err == sql.ErrNoRows {
		return model.VisitReason{}, ErrReasonNotFound
	}
	return rec, err
}

// GetBySlug fetches a single reason by its slug or ErrReasonNotFound.
func (r *VisitReasonRepo) GetBySlug(ctx context.Context, slug string) (model.VisitReason, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reasonCols+` FROM visit_reasons WHERE slug = ?`, slug)
	rec, err := scanReason(row)
	if err == sql.ErrNoRows {
		return model.VisitReason{}, ErrReasonNotFound
	}
	return rec, err
}

// Create inserts a new reason and populates generated fields on the record.
// A slug collision returns ErrSlugExists.
func (r *VisitReasonRepo) Create(ctx context.Context, rec *model.VisitReason) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO visit_reasons (label, slug, active, sort_order, source, category) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Label, rec.Slug, rec.Active, rec.SortOrder, rec.Source, rec.Category)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSlugExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	got, err := r.GetByID(ctx, rec.ID)
	if err != nil {
		return err
	}
	*rec = got
	return nil
}

// ReasonUpdate holds optional field changes for Update.  Nil pointers
// leave the stored value untouched.
type ReasonUpdate struct {
	Label     *string
	Active    *bool
	SortOrder *int32
	Category  *string
}

// Update applies a partial update to a reason and returns the fresh row.
// The featured flag is deliberately excluded; it goes through SetFeatured
// so the cap is always enforced.
func (r *VisitReasonRepo) Update(ctx context.Context, id uint64, upd ReasonUpdate) (model.VisitReason, error) {
	set := []string{}
	args := []any{}
	if upd.Label != nil {
		set = append(set, "label = ?")
		args = append(args, strings.TrimSpace(*upd.Label))
	}
	if upd.Active != nil {
		set = append(set, "active = ?")
		args = append(args, *upd.Active)
	}
	if upd.SortOrder != nil {
		set = append(set, "sort_order = ?")
		args = append(args, *upd.SortOrder)
	}
	if upd.Category != nil {
		set = append(set, "category = ?")
		args = append(args, *upd.Category)
	}
	if len(set) > 0 {
		args = append(args, id)
		_, err := r.db.ExecContext(ctx,
			`UPDATE visit_reasons SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return model.VisitReason{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// UpsertBySlug ensures a reason exists for the given slug and returns it.
// An existing row wins unchanged: the ON DUPLICATE KEY clause is a no-op,
// so a concurrent promotion of the same text cannot overwrite the label or
// flags of the row that got there first.  A new row is created active with
// sort_order 0 and source MANUAL.
func (r *VisitReasonRepo) UpsertBySlug(ctx context.Context, slug, label string) (model.VisitReason, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO visit_reasons (label, slug, active, sort_order, source)
		 VALUES (?, ?, 1, 0, 'MANUAL')
		 ON DUPLICATE KEY UPDATE id = id`,
		label, slug)
	if err != nil {
		return model.VisitReason{}, err
	}
	return r.GetBySlug(ctx, slug)
}

// SetFeatured toggles the featured flag.  Unfeaturing always succeeds and
// clears featured_at.  Featuring is a single conditional UPDATE joined
// against a derived count of the other effectively-featured reasons, so the
// cap check and the write cannot race a concurrent toggle; hitting the cap
// returns ErrFeaturedCapReached with no mutation.
func (r *VisitReasonRepo) SetFeatured(ctx context.Context, id uint64, featured bool) (model.VisitReason, error) {
	// Existence first, so cap breaches and unknown ids stay distinguishable.
	if _, err := r.GetByID(ctx, id); err != nil {
		return model.VisitReason{}, err
	}

	if !featured {
		_, err := r.db.ExecContext(ctx,
			`UPDATE visit_reasons SET featured = 0, featured_at = NULL WHERE id = ?`, id)
		if err != nil {
			return model.VisitReason{}, err
		}
		return r.GetByID(ctx, id)
	}

	now := time.Now().UTC()
	cutoff := now.Add(-model.FeaturedTTL)
	res, err := r.db.ExecContext(ctx,
		`UPDATE visit_reasons r
		 JOIN (SELECT COUNT(*) AS n
		         FROM (SELECT id FROM visit_reasons
		                WHERE featured = 1 AND featured_at IS NOT NULL
		                  AND featured_at >= ? AND id <> ?) f) c
		 SET r.featured = 1, r.featured_at = ?
		 WHERE r.id = ? AND c.n < ?`,
		cutoff, id, now, id, maxFeatured)
	if err != nil {
		return model.VisitReason{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.VisitReason{}, err
	}
	if affected == 0 {
		// MySQL reports zero affected rows both when the cap condition failed
		// and when the write was a no-op (re-featuring inside the same
		// second).  Re-read to tell the two apart.
		rec, err := r.GetByID(ctx, id)
		if err == nil && rec.FeaturedActive(now) {
			return rec, nil
		}
		return model.VisitReason{}, ErrFeaturedCapReached
	}
	return r.GetByID(ctx, id)
}
