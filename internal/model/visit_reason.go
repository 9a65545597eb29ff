package model

import "time"

// FeaturedTTL is how long a reason counts as "featured" after being
// flagged.  The stored featured flag is never cleared when the window
// lapses; consumers must apply this window themselves via FeaturedActive.
const FeaturedTTL = 48 * time.Hour

// VisitReason is a selectable purpose for a visit.  Reasons are created
// by admins or auto-promoted from repeated free-text custom reasons.
// They are deactivated rather than deleted so historical visits keep
// their link.
//
// Fields:
//  ID         – primary key identifier.
//  Label      – display text shown on the kiosk.
//  Slug       – URL-safe derivation of the label, unique; natural key
//               for the idempotent upsert used during promotion.
//  Active     – inactive reasons are hidden from the kiosk but kept
//               for history.
//  SortOrder  – display ordering, ties broken by label.
//  Source     – provenance: MANUAL (admin-created or auto-promoted) or
//               LUMA (mirrored from an external event feed).
//  Category   – optional classification used to filter which reasons
//               appear in which kiosk sub-flow.
//  Featured   – stored featured flag; see FeaturedActive.
//  FeaturedAt – when the reason was last flagged, nil when not flagged.
type VisitReason struct {
	ID         uint64     // visit_reasons.id
	Label      string     // visit_reasons.label
	Slug       string     // visit_reasons.slug
	Active     bool       // visit_reasons.active
	SortOrder  int32      // visit_reasons.sort_order
	Source     string     // visit_reasons.source
	Category   *string    // visit_reasons.category (nullable)
	Featured   bool       // visit_reasons.featured
	FeaturedAt *time.Time // visit_reasons.featured_at (nullable)
	CreatedAt  time.Time  // visit_reasons.created_at
	UpdatedAt  time.Time  // visit_reasons.updated_at
}

// FeaturedActive reports whether the reason is effectively featured at
// the given instant: flagged, stamped, and still inside the 48h window.
func (r *VisitReason) FeaturedActive(now time.Time) bool {
	return r.Featured && r.FeaturedAt != nil && now.Sub(*r.FeaturedAt) < FeaturedTTL
}
