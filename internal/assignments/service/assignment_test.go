package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	assignmenterrors "cyclecount/internal/assignments/errors"
	"cyclecount/internal/assignments/validator"
	"cyclecount/pkg/config"
	mongotx "cyclecount/pkg/db/mongo"
	apperrors "cyclecount/pkg/errors"
	"cyclecount/pkg/logger"
	"cyclecount/pkg/model"
)

type mockAssignmentRepository struct {
	createFunc             func(ctx context.Context, assignment *model.Assignment) error
	findByIDFunc           func(ctx context.Context, id string) (*model.Assignment, error)
	findAllFunc            func(ctx context.Context, status string, limit int, offset int64) ([]*model.Assignment, error)
	findByUserFunc         func(ctx context.Context, userName string, openOnly bool, limit int, offset int64) ([]*model.Assignment, error)
	findOpenByLocationFunc func(ctx context.Context, location string) (*model.Assignment, error)
	updateFunc             func(ctx context.Context, id string, assignment *model.Assignment) (*mongo.UpdateResult, error)
	countFunc              func(ctx context.Context, status string) (int64, error)
	countByUserFunc        func(ctx context.Context, userName string, openOnly bool) (int64, error)
	deleteFunc             func(ctx context.Context, id string) error
}

func (m *mockAssignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, assignment)
	}
	return nil
}

func (m *mockAssignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, assignmenterrors.ErrNotFound
}

func (m *mockAssignmentRepository) FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Assignment, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, status, limit, offset)
	}
	return []*model.Assignment{}, nil
}

func (m *mockAssignmentRepository) FindByUser(ctx context.Context, userName string, openOnly bool, limit int, offset int64) ([]*model.Assignment, error) {
	if m.findByUserFunc != nil {
		return m.findByUserFunc(ctx, userName, openOnly, limit, offset)
	}
	return []*model.Assignment{}, nil
}

func (m *mockAssignmentRepository) FindOpenByLocation(ctx context.Context, location string) (*model.Assignment, error) {
	if m.findOpenByLocationFunc != nil {
		return m.findOpenByLocationFunc(ctx, location)
	}
	return nil, assignmenterrors.ErrNotFound
}

func (m *mockAssignmentRepository) Update(ctx context.Context, id string, assignment *model.Assignment) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, assignment)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockAssignmentRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	return nil
}

func (m *mockAssignmentRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockAssignmentRepository) Count(ctx context.Context, status string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, status)
	}
	return 0, nil
}

func (m *mockAssignmentRepository) CountByUser(ctx context.Context, userName string, openOnly bool) (int64, error) {
	if m.countByUserFunc != nil {
		return m.countByUserFunc(ctx, userName, openOnly)
	}
	return 0, nil
}

func (m *mockAssignmentRepository) RevertExpiredInProgress(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (m *mockAssignmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct {
	createFunc      func(ctx context.Context, lock *model.AssignmentLock) (*model.AssignmentLock, error)
	findFunc        func(ctx context.Context, location string) (*model.AssignmentLock, error)
	deleteFunc      func(ctx context.Context, location string, expiresAt time.Time) error
	deleted         []string
	deletedExpiries []time.Time
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.AssignmentLock) (*model.AssignmentLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Find(ctx context.Context, location string) (*model.AssignmentLock, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, location)
	}
	return nil, assignmenterrors.ErrNotFound
}

func (m *mockLockRepository) Delete(ctx context.Context, location string, expiresAt time.Time) error {
	m.deleted = append(m.deleted, location)
	m.deletedExpiries = append(m.deletedExpiries, expiresAt)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, location, expiresAt)
	}
	return nil
}

func (m *mockLockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type mockResolver struct {
	qty   int
	found bool
	err   error
}

func (m *mockResolver) ResolveExpectedQty(ctx context.Context, lookup model.ExpectedQtyLookup) (int, bool, error) {
	return m.qty, m.found, m.err
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return &config.Config{
		Log:                   log,
		AssignmentLockTTL:     20 * time.Minute,
		AssignmentEventsTopic: "cyclecount.assignments",
	}
}

func newTestService(repo *mockAssignmentRepository, locks *mockLockRepository, resolver ExpectedQtyResolver) AssignmentService {
	cfg := testConfig()
	return NewAssignmentService(repo, locks, resolver, nil, validator.NewAssignmentValidator(cfg.Log), cfg)
}

func duplicateKeyError() error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000}},
	}
}

func TestCreate_AppliesDefaults(t *testing.T) {
	var created *model.Assignment
	repo := &mockAssignmentRepository{
		createFunc: func(ctx context.Context, a *model.Assignment) error {
			created = a
			return nil
		},
	}
	locks := &mockLockRepository{}
	svc := newTestService(repo, locks, nil)

	before := time.Now().UTC()
	err := svc.Create(context.Background(), &model.Assignment{
		AssignedTo:  "carlos",
		Location:    "tun 01 a",
		ExpectedQty: 12,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("repository Create was not called")
	}

	if created.AssignedTo != "Carlos" {
		t.Errorf("expected canonical name Carlos, got %q", created.AssignedTo)
	}
	if created.Location != "TUN-01-A" {
		t.Errorf("expected sanitized location TUN-01-A, got %q", created.Location)
	}
	if created.Status != model.StatusAssigned {
		t.Errorf("expected default status assigned, got %q", created.Status)
	}

	min := before.Add(19 * time.Minute)
	max := time.Now().UTC().Add(21 * time.Minute)
	if created.LockedUntil.Before(min) || created.LockedUntil.After(max) {
		t.Errorf("LockedUntil %v outside the 20 minute window", created.LockedUntil)
	}
}

func TestCreate_AcquiresLocationLock(t *testing.T) {
	var lock *model.AssignmentLock
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, l *model.AssignmentLock) (*model.AssignmentLock, error) {
			lock = l
			return l, nil
		},
	}
	svc := newTestService(&mockAssignmentRepository{}, locks, nil)

	err := svc.Create(context.Background(), &model.Assignment{
		AssignedTo: "Karen",
		Location:   "A-01-03",
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if lock == nil {
		t.Fatal("lock was not created")
	}
	if lock.ID != "A-01-03" {
		t.Errorf("lock keyed by %q, want location A-01-03", lock.ID)
	}
	if lock.AssignedTo != "Karen" {
		t.Errorf("lock holder %q, want Karen", lock.AssignedTo)
	}
	if lock.ExpiresAt.IsZero() {
		t.Error("lock has no expiry")
	}
}

func TestCreate_LocationLockedByAnotherCounter(t *testing.T) {
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, l *model.AssignmentLock) (*model.AssignmentLock, error) {
			return nil, duplicateKeyError()
		},
		findFunc: func(ctx context.Context, location string) (*model.AssignmentLock, error) {
			return &model.AssignmentLock{
				ID:         location,
				AssignedTo: "Luis",
				ExpiresAt:  time.Now().UTC().Add(10 * time.Minute),
			}, nil
		},
	}
	svc := newTestService(&mockAssignmentRepository{}, locks, nil)

	err := svc.Create(context.Background(), &model.Assignment{
		AssignedTo: "Karen",
		Location:   "A-01-03",
	})
	if err == nil {
		t.Fatal("expected lock conflict error")
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != apperrors.CodeLocked {
		t.Errorf("expected code %s, got %s", apperrors.CodeLocked, appErr.Code)
	}
	if appErr.Details["assigned_to"] != "Luis" {
		t.Errorf("expected lock holder in details, got %v", appErr.Details)
	}
}

func TestCreate_ReleasesLockWhenTransactionFails(t *testing.T) {
	repo := &mockAssignmentRepository{
		findOpenByLocationFunc: func(ctx context.Context, location string) (*model.Assignment, error) {
			return &model.Assignment{
				ID:          "68b0a1b2c3d4e5f601234567",
				AssignedTo:  "Luis",
				Location:    location,
				LockedUntil: time.Now().UTC().Add(5 * time.Minute),
				Status:      model.StatusAssigned,
			}, nil
		},
	}
	locks := &mockLockRepository{}
	svc := newTestService(repo, locks, nil)

	err := svc.Create(context.Background(), &model.Assignment{
		AssignedTo: "Karen",
		Location:   "A-01-03",
	})
	if err == nil {
		t.Fatal("expected error when an open assignment already holds the location")
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeLocked {
		t.Fatalf("expected LOCATION_LOCKED, got %v", err)
	}

	if len(locks.deleted) != 1 || locks.deleted[0] != "A-01-03" {
		t.Errorf("expected lock release for A-01-03, got %v", locks.deleted)
	}
}

func TestCreate_ReclaimsLocationAfterLockExpiry(t *testing.T) {
	var created *model.Assignment
	repo := &mockAssignmentRepository{
		findOpenByLocationFunc: func(ctx context.Context, location string) (*model.Assignment, error) {
			return &model.Assignment{
				ID:          "68b0a1b2c3d4e5f601234567",
				AssignedTo:  "Luis",
				Location:    location,
				LockedUntil: time.Now().UTC().Add(-2 * time.Hour),
				Status:      model.StatusAssigned,
			}, nil
		},
		createFunc: func(ctx context.Context, a *model.Assignment) error {
			created = a
			return nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, nil)

	err := svc.Create(context.Background(), &model.Assignment{
		AssignedTo: "Karen",
		Location:   "A-01-03",
	})
	if err != nil {
		t.Fatalf("Create() should succeed once the previous claim lapsed, got: %v", err)
	}
	if created == nil {
		t.Fatal("repository Create was not called")
	}
	if created.AssignedTo != "Karen" {
		t.Errorf("AssignedTo = %q, want Karen", created.AssignedTo)
	}
}

func TestCreate_ResolvesExpectedQtyFromImport(t *testing.T) {
	var created *model.Assignment
	repo := &mockAssignmentRepository{
		createFunc: func(ctx context.Context, a *model.Assignment) error {
			created = a
			return nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockResolver{qty: 48, found: true})

	err := svc.Create(context.Background(), &model.Assignment{
		AssignedTo: "Cody",
		Location:   "B-14-02",
		PalletID:   "PLT-7781",
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if created.ExpectedQty != 48 {
		t.Errorf("expected resolved qty 48, got %d", created.ExpectedQty)
	}
}

func TestCreate_KeepsCallerQty(t *testing.T) {
	var created *model.Assignment
	repo := &mockAssignmentRepository{
		createFunc: func(ctx context.Context, a *model.Assignment) error {
			created = a
			return nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockResolver{qty: 48, found: true})

	err := svc.Create(context.Background(), &model.Assignment{
		AssignedTo:  "Cody",
		Location:    "B-14-02",
		ExpectedQty: 30,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if created.ExpectedQty != 30 {
		t.Errorf("caller-supplied qty overridden: got %d, want 30", created.ExpectedQty)
	}
}

func TestCreate_RejectsNegativeResolvedQty(t *testing.T) {
	createCalled := false
	repo := &mockAssignmentRepository{
		createFunc: func(ctx context.Context, a *model.Assignment) error {
			createCalled = true
			return nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockResolver{qty: -5, found: true})

	err := svc.Create(context.Background(), &model.Assignment{
		AssignedTo: "Cody",
		Location:   "B-14-02",
	})
	if err == nil {
		t.Fatal("expected validation error for a negative resolved quantity")
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
	if createCalled {
		t.Error("assignment with negative expected quantity reached the repository")
	}
}

func TestCreate_RejectsOffRosterName(t *testing.T) {
	svc := newTestService(&mockAssignmentRepository{}, &mockLockRepository{}, nil)

	err := svc.Create(context.Background(), &model.Assignment{
		AssignedTo: "Mallory",
		Location:   "A-01-03",
	})
	if err == nil {
		t.Fatal("expected validation error for off-roster name")
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestUpdate_TerminalStatusConflict(t *testing.T) {
	repo := &mockAssignmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Assignment, error) {
			return &model.Assignment{
				ID:         id,
				AssignedTo: "Carlos",
				Location:   "A-01-03",
				Status:     model.StatusCompleted,
			}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, nil)

	err := svc.Update(context.Background(), "68b0a1b2c3d4e5f601234567", &model.AssignmentUpdate{
		AssignedTo: "Karen",
	})
	if err == nil {
		t.Fatal("expected conflict updating a completed assignment")
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestUpdate_MergesFields(t *testing.T) {
	now := time.Now().UTC()
	existing := &model.Assignment{
		ID:          "68b0a1b2c3d4e5f601234567",
		AssignedTo:  "Carlos",
		Location:    "A-01-03",
		PalletID:    "PLT-1",
		ExpectedQty: 10,
		Status:      model.StatusAssigned,
		CreatedAt:   now,
		LockedUntil: now.Add(20 * time.Minute),
	}

	var saved *model.Assignment
	repo := &mockAssignmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Assignment, error) {
			copy := *existing
			return &copy, nil
		},
		updateFunc: func(ctx context.Context, id string, a *model.Assignment) (*mongo.UpdateResult, error) {
			saved = a
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, nil)

	qty := 25
	err := svc.Update(context.Background(), existing.ID, &model.AssignmentUpdate{
		AssignedTo:  "Karen",
		ExpectedQty: &qty,
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if saved == nil {
		t.Fatal("repository Update was not called")
	}

	if saved.AssignedTo != "Karen" {
		t.Errorf("AssignedTo = %q, want Karen", saved.AssignedTo)
	}
	if saved.ExpectedQty != 25 {
		t.Errorf("ExpectedQty = %d, want 25", saved.ExpectedQty)
	}
	if saved.Location != "A-01-03" {
		t.Errorf("Location changed unexpectedly: %q", saved.Location)
	}
	if saved.PalletID != "PLT-1" {
		t.Errorf("PalletID changed unexpectedly: %q", saved.PalletID)
	}
}

func TestUpdate_CancelReleasesLock(t *testing.T) {
	now := time.Now().UTC()
	lockedUntil := now.Add(20 * time.Minute)
	repo := &mockAssignmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Assignment, error) {
			return &model.Assignment{
				ID:          id,
				AssignedTo:  "Carlos",
				Location:    "A-01-03",
				Status:      model.StatusAssigned,
				CreatedAt:   now,
				LockedUntil: lockedUntil,
			}, nil
		},
	}
	locks := &mockLockRepository{}
	svc := newTestService(repo, locks, nil)

	err := svc.Update(context.Background(), "68b0a1b2c3d4e5f601234567", &model.AssignmentUpdate{
		Status: model.StatusCancelled,
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	if len(locks.deleted) != 1 || locks.deleted[0] != "A-01-03" {
		t.Errorf("expected lock release for A-01-03, got %v", locks.deleted)
	}
	if !locks.deletedExpiries[0].Equal(lockedUntil) {
		t.Errorf("lock released with expiry %v, want the assignment's %v", locks.deletedExpiries[0], lockedUntil)
	}
}

func TestUpdate_CompleteReleasesLock(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockAssignmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Assignment, error) {
			return &model.Assignment{
				ID:          id,
				AssignedTo:  "Carlos",
				Location:    "A-01-03",
				Status:      model.StatusInProgress,
				CreatedAt:   now,
				LockedUntil: now.Add(20 * time.Minute),
			}, nil
		},
	}
	locks := &mockLockRepository{}
	svc := newTestService(repo, locks, nil)

	err := svc.Update(context.Background(), "68b0a1b2c3d4e5f601234567", &model.AssignmentUpdate{
		Status: model.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	if len(locks.deleted) != 1 || locks.deleted[0] != "A-01-03" {
		t.Errorf("expected lock release for A-01-03, got %v", locks.deleted)
	}
}

func TestDelete_ReleasesLock(t *testing.T) {
	repo := &mockAssignmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Assignment, error) {
			return &model.Assignment{
				ID:       id,
				Location: "B-02-01",
				Status:   model.StatusAssigned,
			}, nil
		},
	}
	locks := &mockLockRepository{}
	svc := newTestService(repo, locks, nil)

	if err := svc.Delete(context.Background(), "68b0a1b2c3d4e5f601234567"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}

	if len(locks.deleted) != 1 || locks.deleted[0] != "B-02-01" {
		t.Errorf("expected lock release for B-02-01, got %v", locks.deleted)
	}
}

func TestGetAll_RejectsUnknownStatus(t *testing.T) {
	svc := newTestService(&mockAssignmentRepository{}, &mockLockRepository{}, nil)

	_, _, err := svc.GetAll(context.Background(), "paused", 10, 0)
	if err == nil {
		t.Fatal("expected error for unknown status filter")
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestGetByUser_RejectsUnknownCounter(t *testing.T) {
	svc := newTestService(&mockAssignmentRepository{}, &mockLockRepository{}, nil)

	_, _, err := svc.GetByUser(context.Background(), "Mallory", false, 10, 0)
	if err == nil {
		t.Fatal("expected error for unknown counter")
	}
}

func TestGetByUser_CanonicalizesName(t *testing.T) {
	var queried string
	repo := &mockAssignmentRepository{
		findByUserFunc: func(ctx context.Context, userName string, openOnly bool, limit int, offset int64) ([]*model.Assignment, error) {
			queried = userName
			return []*model.Assignment{}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, nil)

	_, _, err := svc.GetByUser(context.Background(), "  carlos ", true, 10, 0)
	if err != nil {
		t.Fatalf("GetByUser() unexpected error: %v", err)
	}
	if queried != "Carlos" {
		t.Errorf("repository queried with %q, want Carlos", queried)
	}
}
