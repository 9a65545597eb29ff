package handler

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cyrilbhau/visitor-kiosk/internal/model"
	"github.com/cyrilbhau/visitor-kiosk/internal/queue"
	"github.com/cyrilbhau/visitor-kiosk/internal/repository"
	"github.com/cyrilbhau/visitor-kiosk/internal/service"
	"github.com/cyrilbhau/visitor-kiosk/internal/utils"
)

// emailRe is the pragmatic local@domain.tld check used for kiosk input.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// VisitStore is the slice of the visit repository the submission flow needs.
type VisitStore interface {
	Create(ctx context.Context, v *model.Visit) error
	CountCustomReason(ctx context.Context, text string) (int64, error)
}

// VisitReasonStore validates linked reasons and backs the promotion upsert.
type VisitReasonStore interface {
	GetByID(ctx context.Context, id uint64) (model.VisitReason, error)
	UpsertBySlug(ctx context.Context, slug, label string) (model.VisitReason, error)
}

// PhotoStore uploads visitor photos and presigns display URLs.
type PhotoStore interface {
	UploadDataURL(ctx context.Context, dataURL string) (string, error)
	PresignedURL(ctx context.Context, key string) (string, error)
}

// CRMPublisher dispatches a recorded visit to the CRM feed.
type CRMPublisher func(ctx context.Context, event queue.VisitRecordedEvent) error

// VisitHandler implements the check-in submission.  Photos is nil when the
// object store is not configured and PublishCRM is nil when the broker is
// disabled; both features then silently drop out, because neither is ever
// allowed to block a visitor from checking in.
type VisitHandler struct {
	Visits     VisitStore
	Reasons    VisitReasonStore
	Photos     PhotoStore
	PublishCRM CRMPublisher
}

// NewVisitHandler constructs a VisitHandler.  Visits and Reasons must be
// non-nil; Photos and PublishCRM are optional.
func NewVisitHandler(visits VisitStore, reasons VisitReasonStore, photos PhotoStore, publish CRMPublisher) *VisitHandler {
	if visits == nil || reasons == nil {
		panic("nil store passed to NewVisitHandler")
	}
	return &VisitHandler{Visits: visits, Reasons: reasons, Photos: photos, PublishCRM: publish}
}

type visitReq struct {
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	PhotoDataURL  *string `json:"photo_data_url"`
	VisitReasonID *uint64 `json:"visit_reason_id"`
	CustomReason  *string `json:"custom_reason"`
	Source        string  `json:"source"` // KIOSK | MANUAL | API
}

type visitResp struct {
	ID       uint64  `json:"id"`
	PhotoURL *string `json:"photo_url"`
}

// CreateVisit handles POST /v1/visits.  The visit row is the one thing this
// endpoint guarantees: photo upload, reason promotion and the CRM feed are
// all side effects whose failures are logged and absorbed.  Only a
// malformed submission or a failed insert surfaces to the visitor.
func (h *VisitHandler) CreateVisit(c echo.Context) error {
	var req visitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name is required"})
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !emailRe.MatchString(email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email is required"})
	}

	custom := ""
	if req.CustomReason != nil {
		custom = utils.NormalizeReason(*req.CustomReason)
	}
	if req.VisitReasonID != nil && custom != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "visit_reason_id and custom_reason are mutually exclusive"})
	}

	source := strings.ToUpper(strings.TrimSpace(req.Source))
	if source != "KIOSK" && source != "MANUAL" && source != "API" {
		source = "KIOSK"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	// Resolve the linked reason up front so a bogus id is rejected before
	// any side effects, and so the CRM event can carry the label.
	var reasonID *uint64
	reasonLabel := ""
	if req.VisitReasonID != nil {
		reason, err := h.Reasons.GetByID(ctx, *req.VisitReasonID)
		if err != nil {
			if err == repository.ErrReasonNotFound {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown visit_reason_id"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		reasonID = &reason.ID
		reasonLabel = reason.Label
	}

	// Photo upload is awaited so the stored reference is consistent at
	// creation time, but a failure just means a photo-less visit.
	var photoKey *string
	if h.Photos != nil && req.PhotoDataURL != nil && *req.PhotoDataURL != "" {
		key, err := h.Photos.UploadDataURL(ctx, *req.PhotoDataURL)
		if err != nil {
			log.Printf("photo upload failed: %v", err)
		} else {
			photoKey = &key
		}
	}

	// Promotion: the third case-insensitive occurrence of the same custom
	// text turns it into a reusable reason and the visit links to it.
	if reasonID == nil && custom != "" {
		if reason, ok := service.PromoteCustomReason(ctx, h.Visits, h.Reasons, custom); ok {
			reasonID = &reason.ID
			reasonLabel = reason.Label
			custom = ""
		}
	}

	visit := model.Visit{
		FullName:      fullName,
		Email:         email,
		Source:        source,
		PhotoKey:      photoKey,
		VisitReasonID: reasonID,
	}
	if custom != "" {
		visit.CustomReason = &custom
		reasonLabel = custom
	}

	if err := h.Visits.Create(ctx, &visit); err != nil {
		log.Printf("visit insert failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create visit"})
	}

	// Fire-and-forget CRM dispatch: at most once, failure logged by the
	// publisher and dropped here.
	if h.PublishCRM != nil {
		event := queue.VisitRecordedEvent{
			VisitID:     visit.ID,
			FullName:    visit.FullName,
			Email:       visit.Email,
			ReasonLabel: reasonLabel,
			Source:      visit.Source,
			CreatedAt:   visit.CreatedAt.UTC().Format(time.RFC3339),
		}
		go func() {
			pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pcancel()
			_ = h.PublishCRM(pctx, event)
		}()
	}

	resp := visitResp{ID: visit.ID}
	if photoKey != nil && h.Photos != nil {
		if url, err := h.Photos.PresignedURL(ctx, *photoKey); err != nil {
			log.Printf("presign photo for visit %d failed: %v", visit.ID, err)
		} else {
			resp.PhotoURL = &url
		}
	}
	return c.JSON(http.StatusCreated, resp)
}
