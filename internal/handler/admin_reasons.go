package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cyrilbhau/visitor-kiosk/internal/model"
	"github.com/cyrilbhau/visitor-kiosk/internal/repository"
	"github.com/cyrilbhau/visitor-kiosk/internal/utils"
)

// AdminReasonStore is the slice of the reason repository the admin CRUD
// surface needs.
type AdminReasonStore interface {
	ListAll(ctx context.Context) ([]model.VisitReason, error)
	Create(ctx context.Context, rec *model.VisitReason) error
	Update(ctx context.Context, id uint64, upd repository.ReasonUpdate) (model.VisitReason, error)
	SetFeatured(ctx context.Context, id uint64, featured bool) (model.VisitReason, error)
}

// AdminReasonHandler moderates visit reasons: listing, creation, partial
// updates and the featured toggle with its cap.
type AdminReasonHandler struct {
	Reasons AdminReasonStore
}

// NewAdminReasonHandler constructs an AdminReasonHandler.
func NewAdminReasonHandler(reasons AdminReasonStore) *AdminReasonHandler {
	return &AdminReasonHandler{Reasons: reasons}
}

// adminReasonResp exposes the stored row plus featured_active, the derived
// flag computed with the same 48h window the public listing applies.  The
// stored featured flag is never cleared on expiry, so without this field
// the two surfaces could silently disagree about what is featured.
type adminReasonResp struct {
	ID             uint64     `json:"id"`
	Label          string     `json:"label"`
	Slug           string     `json:"slug"`
	Active         bool       `json:"active"`
	SortOrder      int32      `json:"sort_order"`
	Source         string     `json:"source"`
	Category       *string    `json:"category"`
	Featured       bool       `json:"featured"`
	FeaturedAt     *time.Time `json:"featured_at"`
	FeaturedActive bool       `json:"featured_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toAdminReasonResp(r *model.VisitReason, now time.Time) adminReasonResp {
	return adminReasonResp{
		ID:             r.ID,
		Label:          r.Label,
		Slug:           r.Slug,
		Active:         r.Active,
		SortOrder:      r.SortOrder,
		Source:         r.Source,
		Category:       r.Category,
		Featured:       r.Featured,
		FeaturedAt:     r.FeaturedAt,
		FeaturedActive: r.FeaturedActive(now),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// List handles GET /v1/admin/visit-reasons: every reason, active or not, in
// display order.
func (h *AdminReasonHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reasons, err := h.Reasons.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := time.Now().UTC()
	out := make([]adminReasonResp, 0, len(reasons))
	for i := range reasons {
		out = append(out, toAdminReasonResp(&reasons[i], now))
	}
	return c.JSON(http.StatusOK, out)
}

type createReasonReq struct {
	Label     string  `json:"label"`
	Slug      string  `json:"slug"`
	Active    *bool   `json:"active"`
	SortOrder *int32  `json:"sort_order"`
	Source    string  `json:"source"`
	Category  *string `json:"category"`
}

// Create handles POST /v1/admin/visit-reasons.  Label is required; the slug
// defaults to the slugified label.  A slug collision returns 409.
func (h *AdminReasonHandler) Create(c echo.Context) error {
	var req createReasonReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label is required"})
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = utils.Slugify(label)
	} else {
		slug = utils.Slugify(slug)
	}
	if slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label does not produce a usable slug"})
	}
	source := strings.ToUpper(strings.TrimSpace(req.Source))
	if source == "" {
		source = "MANUAL"
	}

	rec := model.VisitReason{
		Label:  label,
		Slug:   slug,
		Active: true,
		Source: source,
	}
	if req.Active != nil {
		rec.Active = *req.Active
	}
	if req.SortOrder != nil {
		rec.SortOrder = *req.SortOrder
	}
	if req.Category != nil {
		rec.Category = req.Category
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reasons.Create(ctx, &rec); err != nil {
		if err == repository.ErrSlugExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create visit reason"})
	}
	return c.JSON(http.StatusCreated, toAdminReasonResp(&rec, time.Now().UTC()))
}

type updateReasonReq struct {
	Label     *string `json:"label"`
	Active    *bool   `json:"active"`
	SortOrder *int32  `json:"sort_order"`
	Category  *string `json:"category"`
	Featured  *bool   `json:"featured"`
}

// Update handles PATCH /v1/admin/visit-reasons/:id.  The featured toggle
// goes through SetFeatured so the cap is enforced, and runs before the
// field updates: hitting the cap rejects the whole request with the row
// untouched.
func (h *AdminReasonHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reason id"})
	}
	var req updateReasonReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.Featured != nil {
		if _, err := h.Reasons.SetFeatured(ctx, id, *req.Featured); err != nil {
			switch err {
			case repository.ErrFeaturedCapReached:
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot feature more than 3 reasons at a time"})
			case repository.ErrReasonNotFound:
				return c.JSON(http.StatusNotFound, echo.Map{"error": "visit reason not found"})
			default:
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update visit reason"})
			}
		}
	}

	reason, err := h.Reasons.Update(ctx, id, repository.ReasonUpdate{
		Label:     req.Label,
		Active:    req.Active,
		SortOrder: req.SortOrder,
		Category:  req.Category,
	})
	if err != nil {
		if err == repository.ErrReasonNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "visit reason not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update visit reason"})
	}

	return c.JSON(http.StatusOK, toAdminReasonResp(&reason, time.Now().UTC()))
}
