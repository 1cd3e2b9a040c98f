package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"finora/internal/amqp"
	"finora/internal/core"
	"finora/internal/repository"
)

type goalStore interface {
	repository.Goals
	FindUser(ctx context.Context, id int64) (core.User, bool, error)
}

type GoalService struct {
	store    goalStore
	notifier *notifier
}

// Create stores g; a missing currentAmount starts at zero.
func (s *GoalService) Create(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ID = 0
	if g.CurrentAmount == nil {
		g.CurrentAmount = core.AmountPtr(decimal.Zero)
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	saved, err := s.store.SaveGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	s.notifier.written(ctx, amqp.EntityGoal, amqp.ActionCreated, saved.ID)
	return saved, nil
}

func (s *GoalService) Get(ctx context.Context, id int64) (core.Goal, bool, error) {
	return s.store.FindGoal(ctx, id)
}

func (s *GoalService) List(ctx context.Context) ([]core.Goal, error) {
	return s.store.ListGoals(ctx)
}

func (s *GoalService) GetByUser(ctx context.Context, userID int64) ([]core.Goal, error) {
	_, ok, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("goals for user %d: %w", userID, err)
	}
	if !ok {
		return []core.Goal{}, nil
	}
	return s.store.ListGoalsByUser(ctx, userID)
}

// Update overwrites title, amounts, target date and description of goal id.
// The user reference is patched, not overwritten: a nil or zero-id user in
// in keeps the stored owner.
func (s *GoalService) Update(ctx context.Context, id int64, in core.Goal) (core.Goal, error) {
	existing, ok, err := s.store.FindGoal(ctx, id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", id, err)
	}
	if !ok {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", id, core.ErrNotFound)
	}

	existing.Title = in.Title
	existing.TargetAmount = in.TargetAmount
	existing.CurrentAmount = in.CurrentAmount
	existing.TargetDate = in.TargetDate
	existing.Description = in.Description
	if in.UserID() != 0 {
		existing.User = &core.User{ID: in.UserID()}
	}
	if err := existing.Validate(); err != nil {
		return core.Goal{}, err
	}

	saved, err := s.store.SaveGoal(ctx, existing)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", id, err)
	}
	s.notifier.written(ctx, amqp.EntityGoal, amqp.ActionUpdated, id)
	return saved, nil
}

func (s *GoalService) Delete(ctx context.Context, id int64) error {
	_, ok, err := s.store.FindGoal(ctx, id)
	if err != nil || !ok {
		return err
	}
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return err
	}
	s.notifier.written(ctx, amqp.EntityGoal, amqp.ActionDeleted, id)
	return nil
}
