// Package repository declares the data-access ports implemented by every
// storage backend (sqlite, postgres, memory).
//
// Find methods report absence through the boolean result, never through an
// error. Delete methods are no-ops for absent ids.
package repository

import (
	"context"

	"finora/internal/core"
)

type (
	Users interface {
		SaveUser(ctx context.Context, u core.User) (core.User, error)
		FindUser(ctx context.Context, id int64) (core.User, bool, error)
		FindUserByEmail(ctx context.Context, email string) (core.User, bool, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		DeleteUser(ctx context.Context, id int64) error
	}

	Categories interface {
		SaveCategory(ctx context.Context, c core.Category) (core.Category, error)
		FindCategory(ctx context.Context, id int64) (core.Category, bool, error)
		ListCategories(ctx context.Context) ([]core.Category, error)
		DeleteCategory(ctx context.Context, id int64) error
	}

	Transactions interface {
		SaveTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		FindTransaction(ctx context.Context, id int64) (core.Transaction, bool, error)
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	Goals interface {
		SaveGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		FindGoal(ctx context.Context, id int64) (core.Goal, bool, error)
		ListGoals(ctx context.Context) ([]core.Goal, error)
		ListGoalsByUser(ctx context.Context, userID int64) ([]core.Goal, error)
		DeleteGoal(ctx context.Context, id int64) error
	}

	// Store is the full set of repositories over one connection.
	Store interface {
		Users
		Categories
		Transactions
		Goals

		// Ping checks that the underlying store is reachable.
		Ping(ctx context.Context) error
		Close() error
	}
)
