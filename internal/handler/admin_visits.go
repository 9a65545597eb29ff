package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cyrilbhau/visitor-kiosk/internal/repository"
)

// recentVisitLimit is how many visits the admin listing returns.
const recentVisitLimit = 50

// RecentVisitLister supplies the admin visit history.
type RecentVisitLister interface {
	ListRecent(ctx context.Context, limit int) ([]repository.AdminVisitRow, error)
}

// AdminVisitHandler serves the read-only visit history for the admin
// console, resolving stored photo keys into fresh presigned URLs.
type AdminVisitHandler struct {
	Visits RecentVisitLister
	Photos PhotoStore
}

// NewAdminVisitHandler constructs an AdminVisitHandler.  Photos may be nil
// when the object store is not configured; photo URLs are then null.
func NewAdminVisitHandler(visits RecentVisitLister, photos PhotoStore) *AdminVisitHandler {
	return &AdminVisitHandler{Visits: visits, Photos: photos}
}

type adminVisitResp struct {
	repository.AdminVisitRow
	PhotoURL *string `json:"photo_url"`
}

// List handles GET /v1/admin/visits: the 50 most recent visits, newest
// first, each with a freshly presigned photo URL.  Presign failures leave
// the URL null; a missing photo is never worth failing the listing over.
func (h *AdminVisitHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	visits, err := h.Visits.ListRecent(ctx, recentVisitLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	out := make([]adminVisitResp, 0, len(visits))
	for _, v := range visits {
		resp := adminVisitResp{AdminVisitRow: v}
		if v.PhotoKey != nil && h.Photos != nil {
			if url, err := h.Photos.PresignedURL(ctx, *v.PhotoKey); err != nil {
				log.Printf("presign photo for visit %d failed: %v", v.ID, err)
			} else {
				resp.PhotoURL = &url
			}
		}
		out = append(out, resp)
	}
	return c.JSON(http.StatusOK, out)
}
