package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	assignmenterrors "cyclecount/internal/assignments/errors"
	assignmentrepo "cyclecount/internal/assignments/repository"
	"cyclecount/internal/counts/repository"
	"cyclecount/internal/counts/validator"
	"cyclecount/pkg/config"
	apperrors "cyclecount/pkg/errors"
	"cyclecount/pkg/i18n"
	"cyclecount/pkg/kafka"
	"cyclecount/pkg/model"
	"cyclecount/pkg/roster"
	"cyclecount/pkg/sanitizer"
)

const eventSource = "cyclecount-server"

type SubmissionService interface {
	Submit(ctx context.Context, userName string, req *model.CountRequest) (*model.CountSubmission, error)
	GetAll(ctx context.Context, countedBy string, limit int, offset int64) ([]*model.CountSubmission, int64, error)
	Dashboard(ctx context.Context) (*model.DashboardSnapshot, error)
}

// EventPublisher is the slice of the Kafka producer the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type submissionService struct {
	repo           repository.SubmissionRepository
	assignmentRepo assignmentrepo.AssignmentRepository
	lockRepo       assignmentrepo.AssignmentLockRepository
	publisher      EventPublisher
	validator      *validator.SubmissionValidator
	cfg            *config.Config
}

func NewSubmissionService(
	repo repository.SubmissionRepository,
	assignmentRepo assignmentrepo.AssignmentRepository,
	lockRepo assignmentrepo.AssignmentLockRepository,
	publisher EventPublisher,
	validator *validator.SubmissionValidator,
	cfg *config.Config,
) SubmissionService {
	return &submissionService{
		repo:           repo,
		assignmentRepo: assignmentRepo,
		lockRepo:       lockRepo,
		publisher:      publisher,
		validator:      validator,
		cfg:            cfg,
	}
}

// Submit records a count against an open assignment. The submission
// insert and the assignment completion commit together; the location
// lock release and the event publish follow outside the transaction.
func (s *submissionService) Submit(ctx context.Context, userName string, req *model.CountRequest) (*model.CountSubmission, error) {
	name := roster.Canonical(sanitizer.SanitizeName(userName))
	if !roster.IsCounter(name) {
		return nil, apperrors.InvalidInput("Unknown counter: " + userName)
	}

	s.sanitizeRequest(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Count request validation failed", "error", err)
		return nil, apperrors.Validation("Count request validation failed", map[string]any{"error": err.Error()})
	}

	var submission *model.CountSubmission
	var location string
	var lockedUntil time.Time

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		assignment, err := s.assignmentRepo.FindByID(sessCtx, req.AssignmentID)
		if err != nil {
			if errors.Is(err, assignmenterrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Assignment", req.AssignmentID)
			}
			if errors.Is(err, assignmenterrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid assignment ID format")
			}
			return apperrors.Internal("Failed to load assignment", err)
		}

		if !assignment.Open() {
			return apperrors.Conflict("Assignment is already " + assignment.Status)
		}

		location = assignment.Location
		lockedUntil = assignment.LockedUntil
		submission = s.buildSubmission(name, assignment, req)

		if err := s.validator.Validate(submission); err != nil {
			s.cfg.Log.Warn("Count submission validation failed", "error", err)
			return apperrors.Validation("Count submission validation failed", map[string]any{"error": err.Error()})
		}

		if err := s.repo.Create(sessCtx, submission); err != nil {
			return apperrors.Internal("Failed to store count submission", err)
		}
		if err := s.assignmentRepo.UpdateStatus(sessCtx, assignment.ID, model.StatusCompleted); err != nil {
			return apperrors.Internal("Failed to complete assignment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to submit count", "assignment_id", req.AssignmentID, "error", err)
		return nil, err
	}

	if releaseErr := s.lockRepo.Delete(ctx, location, lockedUntil); releaseErr != nil {
		s.cfg.Log.Warn("Failed to release assignment lock", "location", location, "error", releaseErr)
	}

	s.publishSubmitted(ctx, submission)

	s.cfg.Log.Info("Count submitted successfully",
		"submission_id", submission.ID,
		"assignment_id", submission.AssignmentID,
		"counted_by", submission.CountedBy,
		"variance", submission.Variance,
	)
	return submission, nil
}

func (s *submissionService) GetAll(ctx context.Context, countedBy string, limit int, offset int64) ([]*model.CountSubmission, int64, error) {
	if countedBy != "" {
		countedBy = roster.Canonical(sanitizer.SanitizeName(countedBy))
		if !roster.IsCounter(countedBy) {
			return nil, 0, apperrors.InvalidInput("Unknown counter: " + countedBy)
		}
	}

	var count int64
	var submissions []*model.CountSubmission
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, countedBy)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count submissions", "error", errCount)
			errCount = apperrors.Internal("Failed to count submissions", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		submissions, errFind = s.repo.FindAll(ctx, countedBy, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list submissions", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve submissions", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return submissions, count, nil
}

// Dashboard aggregates assignment and submission counters. "Today"
// starts at midnight in the configured warehouse timezone, not UTC.
func (s *submissionService) Dashboard(ctx context.Context) (*model.DashboardSnapshot, error) {
	localNow := i18n.LocalNow(s.cfg.DefaultTimezone)
	startOfDay := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, localNow.Location()).UTC()

	snapshot := &model.DashboardSnapshot{
		GeneratedAt: localNow.Format(time.RFC3339),
	}

	type counter struct {
		dest *int64
		load func(context.Context) (int64, error)
	}

	counters := []counter{
		{&snapshot.TotalAssignments, func(ctx context.Context) (int64, error) {
			return s.assignmentRepo.Count(ctx, "")
		}},
		{&snapshot.CompletedAssignments, func(ctx context.Context) (int64, error) {
			return s.assignmentRepo.Count(ctx, model.StatusCompleted)
		}},
		{&snapshot.SubmissionsToday, func(ctx context.Context) (int64, error) {
			return s.repo.CountSince(ctx, startOfDay)
		}},
		{&snapshot.MatchedCounts, func(ctx context.Context) (int64, error) {
			return s.repo.CountVarianceSince(ctx, startOfDay, false)
		}},
		{&snapshot.VarianceCounts, func(ctx context.Context) (int64, error) {
			return s.repo.CountVarianceSince(ctx, startOfDay, true)
		}},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(counters))
	wg.Add(len(counters))
	for i, c := range counters {
		go func(i int, c counter) {
			defer wg.Done()
			value, err := c.load(ctx)
			if err != nil {
				errs[i] = err
				return
			}
			*c.dest = value
		}(i, c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			s.cfg.Log.Error("Failed to build dashboard snapshot", "error", err)
			return nil, apperrors.Internal("Failed to build dashboard snapshot", err)
		}
	}

	// Open = everything not yet terminal; cancelled assignments fall out
	// of both buckets.
	cancelled, err := s.assignmentRepo.Count(ctx, model.StatusCancelled)
	if err != nil {
		s.cfg.Log.Error("Failed to count cancelled assignments", "error", err)
		return nil, apperrors.Internal("Failed to build dashboard snapshot", err)
	}
	snapshot.OpenAssignments = snapshot.TotalAssignments - snapshot.CompletedAssignments - cancelled

	judged := snapshot.MatchedCounts + snapshot.VarianceCounts
	if judged > 0 {
		snapshot.AccuracyPct = float64(snapshot.MatchedCounts) / float64(judged) * 100
	}

	return snapshot, nil
}

// --- Helpers ---

func (s *submissionService) sanitizeRequest(req *model.CountRequest) {
	req.Note = sanitizer.SanitizeNote(req.Note)
	req.ActualPalletID = sanitizer.SanitizeCode(req.ActualPalletID)
	req.ActualLot = sanitizer.SanitizeCode(req.ActualLot)
	if req.IssueType == "" {
		req.IssueType = model.IssueNone
	}
}

func (s *submissionService) buildSubmission(countedBy string, assignment *model.Assignment, req *model.CountRequest) *model.CountSubmission {
	return &model.CountSubmission{
		AssignmentID:   assignment.ID,
		CountedBy:      countedBy,
		Location:       assignment.Location,
		PalletID:       assignment.PalletID,
		SKU:            assignment.SKU,
		Lot:            assignment.Lot,
		ExpectedQty:    assignment.ExpectedQty,
		CountedQty:     req.CountedQty,
		Variance:       req.CountedQty - assignment.ExpectedQty,
		IssueType:      req.IssueType,
		Note:           req.Note,
		ActualPalletID: req.ActualPalletID,
		ActualLot:      req.ActualLot,
	}
}

func (s *submissionService) publishSubmitted(ctx context.Context, submission *model.CountSubmission) {
	if s.publisher == nil {
		return
	}

	msg := kafka.BuildCountSubmitted(eventSource, kafka.CountSubmittedEvent{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		CountedBy:    submission.CountedBy,
		Location:     submission.Location,
		ExpectedQty:  submission.ExpectedQty,
		CountedQty:   submission.CountedQty,
		Variance:     submission.Variance,
		IssueType:    submission.IssueType,
		SubmittedAt:  submission.SubmittedAt,
	})
	msg.Topic = s.cfg.CountEventsTopic

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish count.submitted event",
			"submission_id", submission.ID,
			"error", err,
		)
	}
}
