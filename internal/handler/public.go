package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/cyrilbhau/visitor-kiosk/internal/model"
	"github.com/cyrilbhau/visitor-kiosk/internal/repository"
)

// searchMinChars is the minimum trimmed query length before the visitor
// directory is consulted.  Shorter queries return empty immediately; this
// is cost control, not validation, so it is not an error.
const searchMinChars = 3

// searchLimit caps autocomplete suggestions per query.
const searchLimit = 10

// ReasonLister supplies the active, ordered reasons for the kiosk.
type ReasonLister interface {
	ListActive(ctx context.Context) ([]model.VisitReason, error)
}

// VisitorSearcher looks up past (name, email) pairs for autocomplete.
type VisitorSearcher interface {
	SearchVisitors(ctx context.Context, q string, limit int) ([]repository.VisitorRow, error)
}

// PublicHandler serves the unauthenticated kiosk endpoints: the reason
// listing and the visitor directory search.  Neither requires a session.
type PublicHandler struct {
	Reasons ReasonLister
	Visits  VisitorSearcher
}

// NewPublicHandler constructs a PublicHandler with the provided stores.
func NewPublicHandler(reasons ReasonLister, visits VisitorSearcher) *PublicHandler {
	return &PublicHandler{Reasons: reasons, Visits: visits}
}

type publicReasonResp struct {
	ID       uint64  `json:"id"`
	Label    string  `json:"label"`
	Slug     string  `json:"slug"`
	Featured bool    `json:"featured"`
	Category *string `json:"category"`
}

// GetVisitReasons handles GET /v1/visit-reasons.  It returns active reasons
// in display order with the featured flag computed against the 48h window,
// so the kiosk can group "happening now" reasons separately.  A reason
// whose window has lapsed simply reports featured=false; the stored flag is
// never reconciled.
func (h *PublicHandler) GetVisitReasons(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reasons, err := h.Reasons.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	now := time.Now().UTC()
	out := make([]publicReasonResp, 0, len(reasons))
	for i := range reasons {
		r := &reasons[i]
		out = append(out, publicReasonResp{
			ID:       r.ID,
			Label:    r.Label,
			Slug:     r.Slug,
			Featured: r.FeaturedActive(now),
			Category: r.Category,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// SearchVisitors handles GET /v1/visitors/search?q=.  Queries shorter than
// three characters return an empty list without touching the directory.  A
// failed lookup also degrades to an empty list so the check-in flow stays
// usable; the error is only logged.
func (h *PublicHandler) SearchVisitors(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if utf8.RuneCountInString(q) < searchMinChars {
		return c.JSON(http.StatusOK, []repository.VisitorRow{})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	visitors, err := h.Visits.SearchVisitors(ctx, q, searchLimit)
	if err != nil {
		log.Printf("visitor search failed for %q: %v", q, err)
		return c.JSON(http.StatusOK, []repository.VisitorRow{})
	}
	return c.JSON(http.StatusOK, visitors)
}
