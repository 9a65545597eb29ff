package model

import "time"

// CrmSyncEvent is the audit trail of the CRM feed.  One row is written
// per consumed visit event, recording which provider (if any) the visit
// was forwarded to and how the attempt ended.  Delivery is best-effort;
// this table is the only acknowledgment the system keeps.
type CrmSyncEvent struct {
	ID        uint64     // crm_sync_events.id
	VisitID   uint64     // crm_sync_events.visit_id
	Provider  string     // crm_sync_events.provider (NONE, HUBSPOT, ...)
	Status    string     // crm_sync_events.status (SKIPPED, SENT, FAILED)
	Error     *string    // crm_sync_events.error (nullable)
	SentAt    *time.Time // crm_sync_events.sent_at (nullable)
	CreatedAt time.Time  // crm_sync_events.created_at
}
