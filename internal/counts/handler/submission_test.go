package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"

	apperrors "cyclecount/pkg/errors"
	"cyclecount/pkg/logger"
	"cyclecount/pkg/model"
)

type mockSubmissionService struct {
	submitFunc    func(ctx context.Context, userName string, req *model.CountRequest) (*model.CountSubmission, error)
	dashboardFunc func(ctx context.Context) (*model.DashboardSnapshot, error)
}

func (m *mockSubmissionService) Submit(ctx context.Context, userName string, req *model.CountRequest) (*model.CountSubmission, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, userName, req)
	}
	return &model.CountSubmission{}, nil
}

func (m *mockSubmissionService) GetAll(ctx context.Context, countedBy string, limit int, offset int64) ([]*model.CountSubmission, int64, error) {
	return []*model.CountSubmission{}, 0, nil
}

func (m *mockSubmissionService) Dashboard(ctx context.Context) (*model.DashboardSnapshot, error) {
	if m.dashboardFunc != nil {
		return m.dashboardFunc(ctx)
	}
	return &model.DashboardSnapshot{}, nil
}

func testHandler(svc *mockSubmissionService) *SubmissionHandler {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewSubmissionHandler(svc, log)
}

func TestSubmit_RequiresCounterIdentity(t *testing.T) {
	h := testHandler(&mockSubmissionService{})

	body := bytes.NewBufferString(`{"assignment_id":"68b0a1b2c3d4e5f601234567","counted_qty":5}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/counts", body)
	rec := httptest.NewRecorder()

	h.Submit(rec, req, httprouter.Params{})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without a counter identity", rec.Code)
	}
}

func TestSubmit_HeaderIdentity(t *testing.T) {
	var receivedUser string
	svc := &mockSubmissionService{
		submitFunc: func(ctx context.Context, userName string, req *model.CountRequest) (*model.CountSubmission, error) {
			receivedUser = userName
			return &model.CountSubmission{
				AssignmentID: req.AssignmentID,
				CountedBy:    "Carlos",
				CountedQty:   req.CountedQty,
			}, nil
		},
	}
	h := testHandler(svc)

	body := bytes.NewBufferString(`{"assignment_id":"68b0a1b2c3d4e5f601234567","counted_qty":5}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/counts", body)
	req.Header.Set("X-Counter-Name", "Carlos")
	rec := httptest.NewRecorder()

	h.Submit(rec, req, httprouter.Params{})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if receivedUser != "Carlos" {
		t.Errorf("service received user %q, want Carlos", receivedUser)
	}
}

func TestSubmit_QueryFallbackIdentity(t *testing.T) {
	var receivedUser string
	svc := &mockSubmissionService{
		submitFunc: func(ctx context.Context, userName string, req *model.CountRequest) (*model.CountSubmission, error) {
			receivedUser = userName
			return &model.CountSubmission{}, nil
		},
	}
	h := testHandler(svc)

	body := bytes.NewBufferString(`{"assignment_id":"68b0a1b2c3d4e5f601234567","counted_qty":5}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/counts?user=Karen", body)
	rec := httptest.NewRecorder()

	h.Submit(rec, req, httprouter.Params{})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if receivedUser != "Karen" {
		t.Errorf("service received user %q, want Karen", receivedUser)
	}
}

func TestSubmit_InvalidBody(t *testing.T) {
	h := testHandler(&mockSubmissionService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/counts", bytes.NewBufferString("{not json"))
	req.Header.Set("X-Counter-Name", "Carlos")
	rec := httptest.NewRecorder()

	h.Submit(rec, req, httprouter.Params{})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for malformed body", rec.Code)
	}
}

func TestSubmit_ServiceConflict(t *testing.T) {
	svc := &mockSubmissionService{
		submitFunc: func(ctx context.Context, userName string, req *model.CountRequest) (*model.CountSubmission, error) {
			return nil, apperrors.Conflict("Assignment is already completed")
		},
	}
	h := testHandler(svc)

	body := bytes.NewBufferString(`{"assignment_id":"68b0a1b2c3d4e5f601234567","counted_qty":5}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/counts", body)
	req.Header.Set("X-Counter-Name", "Carlos")
	rec := httptest.NewRecorder()

	h.Submit(rec, req, httprouter.Params{})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != apperrors.CodeConflict {
		t.Errorf("error code = %q, want %s", resp.Code, apperrors.CodeConflict)
	}
}

func TestDashboard(t *testing.T) {
	svc := &mockSubmissionService{
		dashboardFunc: func(ctx context.Context) (*model.DashboardSnapshot, error) {
			return &model.DashboardSnapshot{
				TotalAssignments: 10,
				OpenAssignments:  4,
				AccuracyPct:      87.5,
			}, nil
		},
	}
	h := testHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/counts/dashboard", nil)
	rec := httptest.NewRecorder()

	h.Dashboard(rec, req, httprouter.Params{})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data model.DashboardSnapshot `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.TotalAssignments != 10 || resp.Data.AccuracyPct != 87.5 {
		t.Errorf("unexpected snapshot: %+v", resp.Data)
	}
}
