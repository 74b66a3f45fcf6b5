package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	assignmenterrors "cyclecount/internal/assignments/errors"
	"cyclecount/internal/assignments/repository"
	"cyclecount/internal/assignments/validator"
	"cyclecount/pkg/config"
	apperrors "cyclecount/pkg/errors"
	"cyclecount/pkg/kafka"
	"cyclecount/pkg/model"
	"cyclecount/pkg/roster"
	"cyclecount/pkg/sanitizer"
)

const eventSource = "cyclecount-server"

type AssignmentService interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	GetAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Assignment, int64, error)
	GetByUser(ctx context.Context, userName string, openOnly bool, limit int, offset int64) ([]*model.Assignment, int64, error)
	Update(ctx context.Context, id string, updates *model.AssignmentUpdate) error
	Delete(ctx context.Context, id string) error
}

// ExpectedQtyResolver looks up the imported expected quantity for an
// assignment's coordinates. Implemented by the inventory service.
type ExpectedQtyResolver interface {
	ResolveExpectedQty(ctx context.Context, lookup model.ExpectedQtyLookup) (int, bool, error)
}

// EventPublisher is the slice of the Kafka producer the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	lockRepo  repository.AssignmentLockRepository
	resolver  ExpectedQtyResolver
	publisher EventPublisher
	validator *validator.AssignmentValidator
	cfg       *config.Config
}

func NewAssignmentService(
	repo repository.AssignmentRepository,
	lockRepo repository.AssignmentLockRepository,
	resolver ExpectedQtyResolver,
	publisher EventPublisher,
	validator *validator.AssignmentValidator,
	cfg *config.Config,
) AssignmentService {
	return &assignmentService{
		repo:      repo,
		lockRepo:  lockRepo,
		resolver:  resolver,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *assignmentService) Create(ctx context.Context, assignment *model.Assignment) error {
	s.sanitize(assignment)
	s.applyDefaults(assignment)

	// Resolution runs before validation so an imported quantity faces
	// the same checks as caller input.
	if err := s.resolveExpectedQty(ctx, assignment); err != nil {
		return err
	}
	if err := s.validate(assignment); err != nil {
		return err
	}

	// Claim the location for the full lock window. The claim outlives
	// this request; it is released by count submission, deletion, or
	// the TTL sweep.
	if err := s.acquireLocationLock(ctx, assignment); err != nil {
		return err
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyLocationFree(sessCtx, assignment); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, assignment); err != nil {
			return apperrors.Internal("Failed to create assignment", err)
		}
		return nil
	})
	if err != nil {
		if releaseErr := s.releaseLocationLock(ctx, assignment.Location, assignment.LockedUntil); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release assignment lock", "location", assignment.Location, "error", releaseErr)
		}
		s.cfg.Log.Error("Failed to create assignment", "error", err)
		return err
	}

	s.publishCreated(ctx, assignment)

	s.cfg.Log.Info("Assignment created successfully",
		"id", assignment.ID,
		"assigned_to", assignment.AssignedTo,
		"location", assignment.Location,
		"locked_until", assignment.LockedUntil,
	)
	return nil
}

func (s *assignmentService) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Assignment ID cannot be empty")
	}

	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, assignmenterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Assignment", id)
		}
		if errors.Is(err, assignmenterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid assignment ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve assignment", err)
	}

	return assignment, nil
}

func (s *assignmentService) GetAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Assignment, int64, error) {
	if status != "" && !validStatus(status) {
		return nil, 0, apperrors.InvalidInput("Unknown status filter: " + status)
	}

	var count int64
	var assignments []*model.Assignment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, status)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count assignments", "error", errCount)
			errCount = apperrors.Internal("Failed to count assignments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		assignments, errFind = s.repo.FindAll(ctx, status, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list assignments", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve assignments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return assignments, count, nil
}

func (s *assignmentService) GetByUser(ctx context.Context, userName string, openOnly bool, limit int, offset int64) ([]*model.Assignment, int64, error) {
	name := roster.Canonical(sanitizer.SanitizeName(userName))
	if !roster.IsCounter(name) {
		return nil, 0, apperrors.InvalidInput("Unknown counter: " + userName)
	}

	var count int64
	var assignments []*model.Assignment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByUser(ctx, name, openOnly)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count assignments for user", "user", name, "error", errCount)
			errCount = apperrors.Internal("Failed to count assignments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		assignments, errFind = s.repo.FindByUser(ctx, name, openOnly, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list assignments for user", "user", name, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve assignments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return assignments, count, nil
}

func (s *assignmentService) Update(ctx context.Context, id string, updates *model.AssignmentUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Assignment ID cannot be empty")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, assignmenterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Assignment", id)
		}
		if errors.Is(err, assignmenterrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid assignment ID format")
		}
		return apperrors.Internal("Failed to check assignment existence", err)
	}

	// Completed and cancelled assignments are terminal.
	if !existing.Open() {
		return apperrors.Conflict("Assignment is already " + existing.Status)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Assignment update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeAssignmentUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update assignment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update assignment", "id", id, "error", err)
		return err
	}

	// A terminal patch frees the location for the next assignment.
	if !merged.Open() {
		if releaseErr := s.releaseLocationLock(ctx, merged.Location, merged.LockedUntil); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release assignment lock", "location", merged.Location, "error", releaseErr)
		}
	}

	s.cfg.Log.Info("Assignment updated successfully", "id", id)
	return nil
}

func (s *assignmentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Assignment ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, assignmenterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Assignment", id)
		}
		if errors.Is(err, assignmenterrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid assignment ID format")
		}
		return apperrors.Internal("Failed to check assignment existence", err)
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, assignmenterrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Assignment", id)
			}
			return apperrors.Internal("Failed to delete assignment", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if releaseErr := s.releaseLocationLock(ctx, existing.Location, existing.LockedUntil); releaseErr != nil {
		s.cfg.Log.Warn("Failed to release assignment lock", "location", existing.Location, "error", releaseErr)
	}

	s.cfg.Log.Info("Assignment deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *assignmentService) sanitize(a *model.Assignment) {
	a.AssignedTo = roster.Canonical(sanitizer.SanitizeName(a.AssignedTo))
	a.Location = sanitizer.SanitizeCode(a.Location)
	a.PalletID = sanitizer.SanitizeCode(a.PalletID)
	a.SKU = sanitizer.SanitizeCode(a.SKU)
	a.Lot = sanitizer.SanitizeCode(a.Lot)
}

func (s *assignmentService) applyDefaults(a *model.Assignment) {
	if a.Status == "" {
		a.Status = model.StatusAssigned
	}
	if a.LockedUntil.IsZero() {
		a.LockedUntil = time.Now().UTC().Add(s.cfg.AssignmentLockTTL).Truncate(time.Millisecond)
	}
}

func (s *assignmentService) mergeAssignmentUpdates(existing *model.Assignment, updates *model.AssignmentUpdate) *model.Assignment {
	merged := *existing

	if updates.AssignedTo != "" {
		merged.AssignedTo = updates.AssignedTo
	}
	if updates.PalletID != nil {
		merged.PalletID = *updates.PalletID
	}
	if updates.SKU != nil {
		merged.SKU = *updates.SKU
	}
	if updates.Lot != nil {
		merged.Lot = *updates.Lot
	}
	if updates.ExpectedQty != nil {
		merged.ExpectedQty = *updates.ExpectedQty
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}

	return &merged
}

func (s *assignmentService) validate(assignment *model.Assignment) error {
	if err := s.validator.Validate(assignment); err != nil {
		s.cfg.Log.Warn("Assignment validation failed", "error", err)
		return apperrors.Validation("Assignment validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// resolveExpectedQty fills ExpectedQty from the imported inventory when
// the caller did not supply one. No import data is not an error; the
// count form will show zero expected.
func (s *assignmentService) resolveExpectedQty(ctx context.Context, a *model.Assignment) error {
	if a.ExpectedQty != 0 || s.resolver == nil {
		return nil
	}

	qty, found, err := s.resolver.ResolveExpectedQty(ctx, model.ExpectedQtyLookup{
		Location: a.Location,
		PalletID: a.PalletID,
		SKU:      a.SKU,
		Lot:      a.Lot,
	})
	if err != nil {
		return apperrors.Internal("Failed to resolve expected quantity", err)
	}
	if found {
		a.ExpectedQty = qty
	}
	return nil
}

func (s *assignmentService) verifyLocationFree(ctx context.Context, assignment *model.Assignment) error {
	existing, err := s.repo.FindOpenByLocation(ctx, assignment.Location)
	if err != nil {
		if errors.Is(err, assignmenterrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to check location availability", err)
	}
	if existing.ID == assignment.ID {
		return nil
	}
	// A claim past its window no longer blocks the location.
	if !existing.LockedUntil.After(time.Now().UTC()) {
		return nil
	}
	return apperrors.Locked(assignment.Location, map[string]any{
		"assigned_to": existing.AssignedTo,
		"expires_at":  existing.LockedUntil,
	})
}

func (s *assignmentService) acquireLocationLock(ctx context.Context, assignment *model.Assignment) error {
	lock := &model.AssignmentLock{
		ID:         assignment.Location,
		AssignedTo: assignment.AssignedTo,
		ExpiresAt:  assignment.LockedUntil,
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			details := map[string]any{}
			if held, findErr := s.lockRepo.Find(ctx, assignment.Location); findErr == nil {
				details["assigned_to"] = held.AssignedTo
				details["expires_at"] = held.ExpiresAt
			}
			return apperrors.Locked(assignment.Location, details)
		}
		return apperrors.Internal("Failed to acquire assignment lock", err)
	}

	return nil
}

func (s *assignmentService) releaseLocationLock(ctx context.Context, location string, expiresAt time.Time) error {
	return s.lockRepo.Delete(ctx, location, expiresAt)
}

func (s *assignmentService) publishCreated(ctx context.Context, a *model.Assignment) {
	if s.publisher == nil {
		return
	}

	msg := kafka.BuildAssignmentCreated(eventSource, kafka.AssignmentCreatedEvent{
		AssignmentID: a.ID,
		AssignedTo:   a.AssignedTo,
		Location:     a.Location,
		PalletID:     a.PalletID,
		ExpectedQty:  a.ExpectedQty,
		LockedUntil:  a.LockedUntil,
		CreatedAt:    a.CreatedAt,
	})
	msg.Topic = s.cfg.AssignmentEventsTopic

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish assignment.created event",
			"assignment_id", a.ID,
			"error", err,
		)
	}
}

func validStatus(status string) bool {
	switch status {
	case model.StatusAssigned, model.StatusInProgress, model.StatusCompleted, model.StatusCancelled:
		return true
	}
	return false
}
