package service

import (
	"context"
	"fmt"

	"github.com/prepstack/satprep-backend/internal/model"
	"github.com/prepstack/satprep-backend/internal/repository"
)

// DashboardService aggregates a student's progress for the home screen.
type DashboardService struct {
	attemptRepo *repository.AttemptRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(attemptRepo *repository.AttemptRepository) *DashboardService {
	return &DashboardService{attemptRepo: attemptRepo}
}

// Overview bundles the dashboard payload.
type Overview struct {
	Stats          repository.StudentStats      `json:"stats"`
	BySubject      []repository.SubjectAccuracy `json:"by_subject"`
	RecentAttempts []model.TestAttempt          `json:"recent_attempts"`
}

// GetOverview returns aggregate stats, per-subject accuracy and recent
// attempt history for one student.
func (s *DashboardService) GetOverview(ctx context.Context, studentID int) (*Overview, error) {
	stats, err := s.attemptRepo.StatsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("student stats: %w", err)
	}

	bySubject, err := s.attemptRepo.AccuracyBySubject(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("subject accuracy: %w", err)
	}

	recent, err := s.attemptRepo.ListByStudent(ctx, studentID, 10)
	if err != nil {
		return nil, fmt.Errorf("recent attempts: %w", err)
	}

	return &Overview{
		Stats:          *stats,
		BySubject:      bySubject,
		RecentAttempts: recent,
	}, nil
}
