// Package repotest holds the behaviour every repository.Store backend must
// share. Backend packages call Run from their own tests with a factory that
// returns an empty store.
package repotest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finora/internal/core"
	"finora/internal/repository"
)

// Factory returns a fresh, empty store. Cleanup is the caller's concern.
type Factory func(t *testing.T) repository.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("Goals", func(t *testing.T) { testGoals(t, newStore(t)) })
	t.Run("ReferentialIntegrity", func(t *testing.T) { testIntegrity(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

func mustUser(t *testing.T, s repository.Store, email string) core.User {
	t.Helper()
	u, err := s.SaveUser(context.Background(), core.User{Name: "User " + email, Email: email, PasswordHash: "hash"})
	require.NoError(t, err)
	return u
}

func mustCategory(t *testing.T, s repository.Store, name string, k core.Kind) core.Category {
	t.Helper()
	c, err := s.SaveCategory(context.Background(), core.Category{Name: name, Icon: "i", Color: "#fff", Type: k})
	require.NoError(t, err)
	return c
}

func testUsers(t *testing.T, s repository.Store) {
	ctx := context.Background()

	a := mustUser(t, s, "a@x.io")
	b := mustUser(t, s, "b@x.io")
	require.NotZero(t, a.ID)
	require.Greater(t, b.ID, a.ID)

	got, ok, err := s.FindUser(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a@x.io", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)

	got, ok, err = s.FindUserByEmail(ctx, "b@x.io")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b.ID, got.ID)

	_, ok, err = s.FindUserByEmail(ctx, "nobody@x.io")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.SaveUser(ctx, core.User{Name: "dup", Email: "a@x.io", PasswordHash: "h"})
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)

	a.Name = "Renamed"
	updated, err := s.SaveUser(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, "Renamed", updated.Name)

	list, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)

	require.NoError(t, s.DeleteUser(ctx, a.ID))
	require.NoError(t, s.DeleteUser(ctx, a.ID))
	_, ok, err = s.FindUser(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testCategories(t *testing.T, s repository.Store) {
	ctx := context.Background()

	food := mustCategory(t, s, "Food", core.Expense)
	salary := mustCategory(t, s, "Salary", core.Income)

	got, ok, err := s.FindCategory(ctx, food.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, food, got)

	salary.Name = "Wages"
	salary.Color = "green"
	updated, err := s.SaveCategory(ctx, salary)
	require.NoError(t, err)
	assert.Equal(t, salary, updated)

	list, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []int64{food.ID, salary.ID}, []int64{list[0].ID, list[1].ID})

	_, ok, err = s.FindCategory(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.SaveCategory(ctx, core.Category{ID: 9999, Name: "Ghost", Type: core.Expense})
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, s.DeleteCategory(ctx, food.ID))
	require.NoError(t, s.DeleteCategory(ctx, 9999))
	list, err = s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testTransactions(t *testing.T, s repository.Store) {
	ctx := context.Background()

	u1 := mustUser(t, s, "t1@x.io")
	u2 := mustUser(t, s, "t2@x.io")
	food := mustCategory(t, s, "Food", core.Expense)

	tx, err := s.SaveTransaction(ctx, core.Transaction{
		Amount:      decimal.RequireFromString("12.50"),
		Description: "lunch",
		Type:        core.Expense,
		Date:        core.NewDate(2025, 1, 15),
		Category:    &core.Category{ID: food.ID},
		User:        &core.User{ID: u1.ID},
	})
	require.NoError(t, err)
	require.NotZero(t, tx.ID)
	require.NotNil(t, tx.Category)
	assert.Equal(t, "Food", tx.Category.Name)
	require.NotNil(t, tx.User)
	assert.Equal(t, "t1@x.io", tx.User.Email)
	assert.Empty(t, tx.User.PasswordHash)

	_, err = s.SaveTransaction(ctx, core.Transaction{
		Amount:   decimal.NewFromInt(3),
		Type:     core.Expense,
		Category: &core.Category{ID: food.ID},
		User:     &core.User{ID: u2.ID},
	})
	require.NoError(t, err)

	got, ok, err := s.FindTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "2025-01-15", got.Date.String())
	assert.Equal(t, food.ID, got.CategoryID())

	all, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := s.ListTransactionsByUser(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, tx.ID, mine[0].ID)

	none, err := s.ListTransactionsByUser(ctx, 424242)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	got.User = &core.User{ID: u2.ID}
	got.Description = "moved"
	moved, err := s.SaveTransaction(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, u2.ID, moved.UserID())
	assert.Equal(t, "moved", moved.Description)

	require.NoError(t, s.DeleteTransaction(ctx, tx.ID))
	_, ok, err = s.FindTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testGoals(t *testing.T, s repository.Store) {
	ctx := context.Background()

	u := mustUser(t, s, "g@x.io")

	g, err := s.SaveGoal(ctx, core.Goal{
		Title:        "Car",
		TargetAmount: decimal.NewFromInt(5000),
		TargetDate:   core.NewDate(2026, 6, 1),
		User:         &core.User{ID: u.ID},
	})
	require.NoError(t, err)
	assert.Nil(t, g.CurrentAmount)
	assert.Equal(t, "g@x.io", g.User.Email)

	g.CurrentAmount = core.AmountPtr(decimal.RequireFromString("250.75"))
	g.TargetDate = core.Date{}
	g, err = s.SaveGoal(ctx, g)
	require.NoError(t, err)

	got, ok, err := s.FindGoal(ctx, g.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, core.SameAmount(g.CurrentAmount, got.CurrentAmount))
	assert.True(t, got.TargetDate.IsEmpty())

	list, err := s.ListGoalsByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = s.ListGoals(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteGoal(ctx, g.ID))
	list, err = s.ListGoals(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testIntegrity(t *testing.T, s repository.Store) {
	ctx := context.Background()

	u := mustUser(t, s, "ri@x.io")
	c := mustCategory(t, s, "Rent", core.Expense)

	_, err := s.SaveTransaction(ctx, core.Transaction{
		Amount: decimal.NewFromInt(1), Type: core.Expense,
		Category: &core.Category{ID: 9999}, User: &core.User{ID: u.ID},
	})
	assert.ErrorIs(t, err, core.ErrInvalidReference)

	_, err = s.SaveTransaction(ctx, core.Transaction{
		Amount: decimal.NewFromInt(1), Type: core.Expense,
		Category: &core.Category{ID: c.ID}, User: &core.User{ID: 9999},
	})
	assert.ErrorIs(t, err, core.ErrInvalidReference)

	_, err = s.SaveGoal(ctx, core.Goal{Title: "x", User: &core.User{ID: 9999}})
	assert.ErrorIs(t, err, core.ErrInvalidReference)

	_, err = s.SaveTransaction(ctx, core.Transaction{
		Amount: decimal.NewFromInt(1), Type: core.Expense,
		Category: &core.Category{ID: c.ID}, User: &core.User{ID: u.ID},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteCategory(ctx, c.ID), core.ErrInUse)
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), core.ErrInUse)
}
