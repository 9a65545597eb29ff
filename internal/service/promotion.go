// Package service holds the reason-promotion rule: the decision, made at
// visit-submission time, of whether a visitor's free-text reason has been
// typed often enough to become a reusable, selectable VisitReason.
package service

import (
	"context"
	"log"

	"github.com/cyrilbhau/visitor-kiosk/internal/model"
	"github.com/cyrilbhau/visitor-kiosk/internal/utils"
)

// promotionThreshold is how many prior matching visits must exist before a
// custom reason is promoted.  Two prior matches means the current
// submission is the third occurrence.
const promotionThreshold = 2

// CustomReasonCounter counts prior visits whose stored custom-reason text
// matches case-insensitively.
type CustomReasonCounter interface {
	CountCustomReason(ctx context.Context, text string) (int64, error)
}

// ReasonUpserter ensures a reason row exists for a slug, reusing an
// existing row unchanged.
type ReasonUpserter interface {
	UpsertBySlug(ctx context.Context, slug, label string) (model.VisitReason, error)
}

// PromoteCustomReason applies the promotion rule to an already-normalized
// custom reason text.  It returns the reason to link and true when the text
// has been seen often enough and the upsert succeeded.
//
// Promotion is a convenience, never a precondition: every failure (count
// query, unslugable text, upsert conflict) is logged and reported as "no
// promotion" so the visit is recorded with its custom text intact.  The
// race where two visitors submit the same new text simultaneously is left
// to the slug uniqueness constraint: one insert wins, the other upsert
// returns the existing row, and both visits link to the same reason.
func PromoteCustomReason(ctx context.Context, visits CustomReasonCounter, reasons ReasonUpserter, text string) (model.VisitReason, bool) {
	prior, err := visits.CountCustomReason(ctx, text)
	if err != nil {
		log.Printf("promotion: count failed for %q: %v", text, err)
		return model.VisitReason{}, false
	}
	if prior < promotionThreshold {
		return model.VisitReason{}, false
	}

	slug := utils.Slugify(text)
	if slug == "" {
		return model.VisitReason{}, false
	}

	reason, err := reasons.UpsertBySlug(ctx, slug, text)
	if err != nil {
		log.Printf("promotion: upsert failed for slug %q: %v", slug, err)
		return model.VisitReason{}, false
	}
	return reason, true
}
