package services

import (
	"context"
	"fmt"

	"finora/internal/amqp"
	"finora/internal/core"
	"finora/internal/repository"
)

type CategoryService struct {
	store    repository.Categories
	notifier *notifier
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.ID = 0
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	saved, err := s.store.SaveCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.notifier.written(ctx, amqp.EntityCategory, amqp.ActionCreated, saved.ID)
	return saved, nil
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, bool, error) {
	return s.store.FindCategory(ctx, id)
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

// Update replaces every field of category id with those of in.
func (s *CategoryService) Update(ctx context.Context, id int64, in core.Category) (core.Category, error) {
	existing, ok, err := s.store.FindCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	if !ok {
		return core.Category{}, fmt.Errorf("update category %d: %w", id, core.ErrNotFound)
	}

	existing.Name = in.Name
	existing.Icon = in.Icon
	existing.Color = in.Color
	existing.Type = in.Type
	if err := existing.Validate(); err != nil {
		return core.Category{}, err
	}

	saved, err := s.store.SaveCategory(ctx, existing)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	s.notifier.written(ctx, amqp.EntityCategory, amqp.ActionUpdated, id)
	return saved, nil
}

// Delete removes category id. Absent ids are a no-op.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	_, ok, err := s.store.FindCategory(ctx, id)
	if err != nil || !ok {
		return err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.notifier.written(ctx, amqp.EntityCategory, amqp.ActionDeleted, id)
	return nil
}
