package service

import (
	"context"

	"library-lite/internal/domains/activity/model"
	"library-lite/internal/domains/activity/repository"
)

type ServiceInterface interface {
	List(ctx context.Context, filter model.ListFilter) ([]model.ActivityLog, int, error)
}

type activityService struct {
	repo repository.Repository
}

func NewActivityService(repo repository.Repository) ServiceInterface {
	return &activityService{repo: repo}
}

func (s *activityService) List(ctx context.Context, filter model.ListFilter) ([]model.ActivityLog, int, error) {
	return s.repo.List(ctx, filter)
}
