package model

import "time"

// Visit records a single check-in at the kiosk.  Visits are written
// once at submission and never mutated; the admin surface only reads
// them back.
//
// Fields:
//  ID            – primary key identifier.
//  FullName      – visitor name as entered.
//  Email         – visitor email as entered.
//  Source        – how the visit was captured (KIOSK, MANUAL, API).
//  PhotoKey      – object-store key of the visitor photo, nil when no
//                  photo was captured.  Never a usable URL; displayable
//                  URLs are presigned on read.
//  VisitReasonID – optional link to a VisitReason.
//  CustomReason  – optional free-text reason.  At most one of
//                  VisitReasonID and CustomReason is set; the schema
//                  does not enforce this, the handlers do.
//  CreatedAt     – submission timestamp.
type Visit struct {
	ID            uint64    // visits.id
	FullName      string    // visits.full_name
	Email         string    // visits.email
	Source        string    // visits.source
	PhotoKey      *string   // visits.photo_key (nullable)
	VisitReasonID *uint64   // visits.visit_reason_id (nullable)
	CustomReason  *string   // visits.custom_reason (nullable)
	CreatedAt     time.Time // visits.created_at
}
