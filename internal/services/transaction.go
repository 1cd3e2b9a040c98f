package services

import (
	"context"
	"fmt"

	"finora/internal/amqp"
	"finora/internal/core"
	"finora/internal/repository"
)

type transactionStore interface {
	repository.Transactions
	FindUser(ctx context.Context, id int64) (core.User, bool, error)
}

type TransactionService struct {
	store    transactionStore
	notifier *notifier
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = 0
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	saved, err := s.store.SaveTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.notifier.written(ctx, amqp.EntityTransaction, amqp.ActionCreated, saved.ID)
	return saved, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, bool, error) {
	return s.store.FindTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// GetByUser lists the user's transactions. An unknown user has none.
func (s *TransactionService) GetByUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	_, ok, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("transactions for user %d: %w", userID, err)
	}
	if !ok {
		return []core.Transaction{}, nil
	}
	return s.store.ListTransactionsByUser(ctx, userID)
}

// Update overwrites amount, description, type and date of transaction id.
// The category and user references are patched, not overwritten: a nil or
// zero-id reference in in keeps the stored one.
func (s *TransactionService) Update(ctx context.Context, id int64, in core.Transaction) (core.Transaction, error) {
	existing, ok, err := s.store.FindTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	if !ok {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, core.ErrNotFound)
	}

	existing.Amount = in.Amount
	existing.Description = in.Description
	existing.Type = in.Type
	existing.Date = in.Date
	if in.CategoryID() != 0 {
		existing.Category = &core.Category{ID: in.CategoryID()}
	}
	if in.UserID() != 0 {
		existing.User = &core.User{ID: in.UserID()}
	}
	if err := existing.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.SaveTransaction(ctx, existing)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	s.notifier.written(ctx, amqp.EntityTransaction, amqp.ActionUpdated, id)
	return saved, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	_, ok, err := s.store.FindTransaction(ctx, id)
	if err != nil || !ok {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.notifier.written(ctx, amqp.EntityTransaction, amqp.ActionDeleted, id)
	return nil
}
