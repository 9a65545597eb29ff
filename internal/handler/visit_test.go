package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cyrilbhau/visitor-kiosk/internal/queue"
)

func TestCreateVisitMissingName(t *testing.T) {
	h := NewVisitHandler(newMockVisitStore(), newMockReasonStore(), nil, nil)
	c, rec := newJSONContext(http.MethodPost, "/v1/visits", `{"email":"alex@x.com"}`)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateVisitInvalidEmail(t *testing.T) {
	h := NewVisitHandler(newMockVisitStore(), newMockReasonStore(), nil, nil)
	for _, email := range []string{"", "not-an-email", "a@b", "a b@c.com"} {
		c, rec := newJSONContext(http.MethodPost, "/v1/visits",
			`{"full_name":"Alex Smith","email":"`+email+`"}`)
		if err := h.CreateVisit(c); err != nil {
			t.Fatalf("CreateVisit: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("email %q: status = %d, want 400", email, rec.Code)
		}
	}
}

func TestCreateVisitMutuallyExclusiveReasons(t *testing.T) {
	visits := newMockVisitStore()
	reasons := newMockReasonStore()
	h := NewVisitHandler(visits, reasons, nil, nil)
	c, rec := newJSONContext(http.MethodPost, "/v1/visits",
		`{"full_name":"Alex Smith","email":"alex@x.com","visit_reason_id":1,"custom_reason":"Yoga workshop"}`)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(visits.visits) != 0 {
		t.Error("no visit should be recorded for an invalid submission")
	}
}

func TestCreateVisitNoReasonAtAll(t *testing.T) {
	visits := newMockVisitStore()
	h := NewVisitHandler(visits, newMockReasonStore(), nil, nil)
	c, rec := newJSONContext(http.MethodPost, "/v1/visits",
		`{"full_name":"Alex Smith","email":"alex@x.com"}`)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	v := visits.visits[0]
	if v.VisitReasonID != nil || v.CustomReason != nil {
		t.Error("a visit may be recorded with neither reason nor custom text")
	}
	if v.Source != "KIOSK" {
		t.Errorf("source = %q, want default KIOSK", v.Source)
	}
}

func TestCreateVisitUnknownReasonID(t *testing.T) {
	h := NewVisitHandler(newMockVisitStore(), newMockReasonStore(), nil, nil)
	c, rec := newJSONContext(http.MethodPost, "/v1/visits",
		`{"full_name":"Alex Smith","email":"alex@x.com","visit_reason_id":42}`)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateVisitFirstOccurrenceKeepsCustomText(t *testing.T) {
	visits := newMockVisitStore()
	reasons := newMockReasonStore()
	h := NewVisitHandler(visits, reasons, nil, nil)
	c, rec := newJSONContext(http.MethodPost, "/v1/visits",
		`{"full_name":"Alex Smith","email":"alex@x.com","custom_reason":"Yoga workshop "}`)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	v := visits.visits[0]
	if v.VisitReasonID != nil {
		t.Error("first occurrence must not link a reason")
	}
	if v.CustomReason == nil || *v.CustomReason != "Yoga workshop" {
		t.Errorf("custom reason should be stored normalized, got %v", v.CustomReason)
	}
	if len(reasons.reasons) != 0 {
		t.Error("no reason should be created on the first occurrence")
	}
}

func TestCreateVisitThirdOccurrencePromotes(t *testing.T) {
	visits := newMockVisitStore()
	visits.counts["yoga workshop"] = 2
	reasons := newMockReasonStore()
	h := NewVisitHandler(visits, reasons, nil, nil)
	c, rec := newJSONContext(http.MethodPost, "/v1/visits",
		`{"full_name":"Alex Smith","email":"alex@x.com","custom_reason":"Yoga workshop"}`)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	v := visits.visits[0]
	if v.VisitReasonID == nil {
		t.Fatal("third occurrence should link the promoted reason")
	}
	if v.CustomReason != nil {
		t.Error("custom reason must be cleared once the visit links a reason")
	}
	linked := reasons.reasons[*v.VisitReasonID]
	if linked.Slug != "yoga-workshop" {
		t.Errorf("promoted slug = %q, want yoga-workshop", linked.Slug)
	}
}

func TestCreateVisitPromotionFailureFallsBack(t *testing.T) {
	visits := newMockVisitStore()
	visits.counts["yoga workshop"] = 2
	reasons := newMockReasonStore()
	reasons.upsertErr = errors.New("broken")
	h := NewVisitHandler(visits, reasons, nil, nil)
	c, rec := newJSONContext(http.MethodPost, "/v1/visits",
		`{"full_name":"Alex Smith","email":"alex@x.com","custom_reason":"Yoga workshop"}`)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("promotion failure must not block check-in, status = %d", rec.Code)
	}
	v := visits.visits[0]
	if v.VisitReasonID != nil || v.CustomReason == nil {
		t.Error("failed promotion should leave the custom text intact and unlinked")
	}
}

func TestCreateVisitPhotoFailureStillCreated(t *testing.T) {
	visits := newMockVisitStore()
	photos := &mockPhotoStore{uploadErr: errors.New("bucket unreachable")}
	h := NewVisitHandler(visits, newMockReasonStore(), photos, nil)
	c, rec := newJSONContext(http.MethodPost, "/v1/visits",
		`{"full_name":"Alex Smith","email":"alex@x.com","photo_data_url":"data:image/jpeg;base64,aGVsbG8="}`)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp struct {
		ID       uint64  `json:"id"`
		PhotoURL *string `json:"photo_url"`
	}
	if err := decodeBody(rec, &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PhotoURL != nil {
		t.Error("photo_url should be null when the upload failed")
	}
	if visits.visits[0].PhotoKey != nil {
		t.Error("no photo key should be stored when the upload failed")
	}
}

func TestCreateVisitWithPhoto(t *testing.T) {
	visits := newMockVisitStore()
	photos := &mockPhotoStore{}
	h := NewVisitHandler(visits, newMockReasonStore(), photos, nil)
	c, rec := newJSONContext(http.MethodPost, "/v1/visits",
		`{"full_name":"Alex Smith","email":"alex@x.com","photo_data_url":"data:image/jpeg;base64,aGVsbG8="}`)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp struct {
		PhotoURL *string `json:"photo_url"`
	}
	if err := decodeBody(rec, &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PhotoURL == nil {
		t.Fatal("photo_url should be a presigned URL")
	}
	if visits.visits[0].PhotoKey == nil {
		t.Error("the storage key should be persisted on the visit")
	}
}

func TestCreateVisitInsertFailure(t *testing.T) {
	visits := newMockVisitStore()
	visits.createErr = errors.New("deadlock")
	h := NewVisitHandler(visits, newMockReasonStore(), nil, nil)
	c, rec := newJSONContext(http.MethodPost, "/v1/visits",
		`{"full_name":"Alex Smith","email":"alex@x.com"}`)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestCreateVisitCRMFailureIgnored(t *testing.T) {
	visits := newMockVisitStore()
	events := make(chan queue.VisitRecordedEvent, 1)
	publish := func(_ context.Context, ev queue.VisitRecordedEvent) error {
		events <- ev
		return errors.New("broker down")
	}
	h := NewVisitHandler(visits, newMockReasonStore(), nil, publish)
	c, rec := newJSONContext(http.MethodPost, "/v1/visits",
		`{"full_name":"Alex Smith","email":"alex@x.com","custom_reason":"Yoga workshop"}`)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("CRM failure must not affect the response, status = %d", rec.Code)
	}
	select {
	case ev := <-events:
		if ev.ReasonLabel != "Yoga workshop" {
			t.Errorf("event reason label = %q, want custom text", ev.ReasonLabel)
		}
		if ev.FullName != "Alex Smith" || ev.Source != "KIOSK" {
			t.Errorf("unexpected event payload: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a CRM event to be dispatched")
	}
}
