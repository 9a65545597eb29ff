package repository

import (
	"context"
	"database/sql"

	"github.com/cyrilbhau/visitor-kiosk/internal/model"
)

// CrmSyncRepo records the outcome of CRM feed deliveries.  It is written
// only by the queue consumer; nothing in the request path waits on it.
type CrmSyncRepo struct {
	db *sql.DB
}

// NewCrmSyncRepo returns a new CrmSyncRepo bound to the given database.
func NewCrmSyncRepo(db *sql.DB) *CrmSyncRepo { return &CrmSyncRepo{db: db} }

// Record inserts one sync event row.
func (r *CrmSyncRepo) Record(ctx context.Context, ev model.CrmSyncEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO crm_sync_events (visit_id, provider, status, error, sent_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.VisitID, ev.Provider, ev.Status, ev.Error, ev.SentAt)
	return err
}
