// Package queue defines message payloads exchanged over the message broker
// plus the publisher and consumer for the CRM feed.
package queue

// VisitRecordedEvent is published after a visit row is committed.  It
// carries everything the CRM sink needs so downstream consumers never have
// to query the primary database.  ReasonLabel is the resolved purpose: the
// linked reason's label when one exists, otherwise the custom text.
type VisitRecordedEvent struct {
	VisitID     uint64 `json:"visit_id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	ReasonLabel string `json:"reason_label,omitempty"`
	Source      string `json:"source"`
	CreatedAt   string `json:"created_at"`
}
