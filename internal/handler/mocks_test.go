package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cyrilbhau/visitor-kiosk/internal/model"
	"github.com/cyrilbhau/visitor-kiosk/internal/repository"
)

// newJSONContext builds an echo context around a JSON request body.
func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

// ── Mock visit store ──

type mockVisitStore struct {
	visits       []model.Visit
	nextID       uint64
	createErr    error
	counts       map[string]int64
	countErr     error
	searchRows   []repository.VisitorRow
	searchErr    error
	searchCalls  int
	recentRows   []repository.AdminVisitRow
	recentErr    error
}

func newMockVisitStore() *mockVisitStore {
	return &mockVisitStore{nextID: 1, counts: make(map[string]int64)}
}

func (m *mockVisitStore) Create(_ context.Context, v *model.Visit) error {
	if m.createErr != nil {
		return m.createErr
	}
	v.ID = m.nextID
	m.nextID++
	v.CreatedAt = time.Now().UTC()
	m.visits = append(m.visits, *v)
	return nil
}

func (m *mockVisitStore) CountCustomReason(_ context.Context, text string) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.counts[strings.ToLower(text)], nil
}

func (m *mockVisitStore) SearchVisitors(_ context.Context, q string, limit int) ([]repository.VisitorRow, error) {
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if len(m.searchRows) > limit {
		return m.searchRows[:limit], nil
	}
	return m.searchRows, nil
}

func (m *mockVisitStore) ListRecent(_ context.Context, limit int) ([]repository.AdminVisitRow, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if len(m.recentRows) > limit {
		return m.recentRows[:limit], nil
	}
	return m.recentRows, nil
}

// ── Mock reason store ──

type mockReasonStore struct {
	reasons     map[uint64]model.VisitReason
	nextID      uint64
	createErr   error
	updateErr   error
	featuredErr error
	upsertErr   error
}

func newMockReasonStore() *mockReasonStore {
	return &mockReasonStore{reasons: make(map[uint64]model.VisitReason), nextID: 1}
}

func (m *mockReasonStore) add(rec model.VisitReason) model.VisitReason {
	rec.ID = m.nextID
	m.nextID++
	m.reasons[rec.ID] = rec
	return rec
}

func (m *mockReasonStore) GetByID(_ context.Context, id uint64) (model.VisitReason, error) {
	if rec, ok := m.reasons[id]; ok {
		return rec, nil
	}
	return model.VisitReason{}, repository.ErrReasonNotFound
}

func (m *mockReasonStore) UpsertBySlug(_ context.Context, slug, label string) (model.VisitReason, error) {
	if m.upsertErr != nil {
		return model.VisitReason{}, m.upsertErr
	}
	for _, rec := range m.reasons {
		if rec.Slug == slug {
			return rec, nil
		}
	}
	return m.add(model.VisitReason{Label: label, Slug: slug, Active: true, Source: "MANUAL"}), nil
}

func (m *mockReasonStore) ListActive(_ context.Context) ([]model.VisitReason, error) {
	out := make([]model.VisitReason, 0, len(m.reasons))
	for id := uint64(1); id < m.nextID; id++ {
		if rec, ok := m.reasons[id]; ok && rec.Active {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockReasonStore) ListAll(_ context.Context) ([]model.VisitReason, error) {
	out := make([]model.VisitReason, 0, len(m.reasons))
	for id := uint64(1); id < m.nextID; id++ {
		if rec, ok := m.reasons[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockReasonStore) Create(_ context.Context, rec *model.VisitReason) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.reasons {
		if existing.Slug == rec.Slug {
			return repository.ErrSlugExists
		}
	}
	*rec = m.add(*rec)
	return nil
}

func (m *mockReasonStore) Update(_ context.Context, id uint64, upd repository.ReasonUpdate) (model.VisitReason, error) {
	if m.updateErr != nil {
		return model.VisitReason{}, m.updateErr
	}
	rec, ok := m.reasons[id]
	if !ok {
		return model.VisitReason{}, repository.ErrReasonNotFound
	}
	if upd.Label != nil {
		rec.Label = *upd.Label
	}
	if upd.Active != nil {
		rec.Active = *upd.Active
	}
	if upd.SortOrder != nil {
		rec.SortOrder = *upd.SortOrder
	}
	if upd.Category != nil {
		rec.Category = upd.Category
	}
	m.reasons[id] = rec
	return rec, nil
}

func (m *mockReasonStore) SetFeatured(_ context.Context, id uint64, featured bool) (model.VisitReason, error) {
	if m.featuredErr != nil {
		return model.VisitReason{}, m.featuredErr
	}
	rec, ok := m.reasons[id]
	if !ok {
		return model.VisitReason{}, repository.ErrReasonNotFound
	}
	rec.Featured = featured
	if featured {
		now := time.Now().UTC()
		rec.FeaturedAt = &now
	} else {
		rec.FeaturedAt = nil
	}
	m.reasons[id] = rec
	return rec, nil
}

// ── Mock photo store ──

type mockPhotoStore struct {
	uploadErr  error
	presignErr error
	uploads    int
	key        string
}

func (m *mockPhotoStore) UploadDataURL(_ context.Context, _ string) (string, error) {
	m.uploads++
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	if m.key == "" {
		m.key = "visits/2026-08-30/test-photo.jpg"
	}
	return m.key, nil
}

func (m *mockPhotoStore) PresignedURL(_ context.Context, key string) (string, error) {
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return "https://bucket.example.test/" + key + "?sig=abc", nil
}
