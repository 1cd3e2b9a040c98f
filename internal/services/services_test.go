package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finora/internal/amqp"
	"finora/internal/core"
	"finora/internal/log"
	"finora/internal/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.RecordEvent
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, ev *amqp.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Entity+":"+string(ev.Action))
	}
	return out
}

func newTestServices(t *testing.T) (*Services, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	var buf bytes.Buffer
	svc := New(memory.New(), pub, log.New(log.Config{Output: &buf}))
	svc.Users.cost = bcrypt.MinCost
	return svc, pub
}

func registerUser(t *testing.T, svc *Services, email, password string) core.User {
	t.Helper()
	u, err := svc.Users.Register(context.Background(), core.User{Name: gofakeit.Name(), Email: email, Password: password})
	require.NoError(t, err)
	return u
}

func TestCategoryService(t *testing.T) {
	svc, pub := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Categories.Create(ctx, core.Category{Name: "", Type: core.Expense})
	assert.ErrorIs(t, err, core.ErrValidation)

	c, err := svc.Categories.Create(ctx, core.Category{ID: 77, Name: "Food", Icon: "🍔", Color: "red", Type: core.Expense})
	require.NoError(t, err)
	assert.NotEqual(t, int64(77), c.ID, "client ids are ignored on create")

	t.Run("update overwrites every field", func(t *testing.T) {
		updated, err := svc.Categories.Update(ctx, c.ID, core.Category{Name: "Groceries", Type: core.Expense})
		require.NoError(t, err)
		assert.Equal(t, core.Category{ID: c.ID, Name: "Groceries", Icon: "", Color: "", Type: core.Expense}, updated)
	})

	t.Run("update missing id", func(t *testing.T) {
		_, err := svc.Categories.Update(ctx, 9999, core.Category{Name: "X", Type: core.Income})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("get missing id", func(t *testing.T) {
		_, ok, err := svc.Categories.Get(ctx, 9999)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	require.NoError(t, svc.Categories.Delete(ctx, c.ID))
	require.NoError(t, svc.Categories.Delete(ctx, c.ID))

	list, err := svc.Categories.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Equal(t, []string{"category:created", "category:updated", "category:deleted"}, pub.actions())
}

func TestTransactionService(t *testing.T) {
	svc, pub := newTestServices(t)
	ctx := context.Background()

	u := registerUser(t, svc, gofakeit.Email(), "pw")
	other := registerUser(t, svc, gofakeit.Email(), "pw")
	food, err := svc.Categories.Create(ctx, core.Category{Name: "Food", Type: core.Expense})
	require.NoError(t, err)
	rent, err := svc.Categories.Create(ctx, core.Category{Name: "Rent", Type: core.Expense})
	require.NoError(t, err)

	_, err = svc.Transactions.Create(ctx, core.Transaction{Amount: decimal.NewFromInt(1), Type: core.Expense, User: &core.User{ID: u.ID}})
	assert.ErrorIs(t, err, core.ErrMissingCategory)

	_, err = svc.Transactions.Create(ctx, core.Transaction{
		Amount: decimal.NewFromInt(1), Type: core.Expense,
		Category: &core.Category{ID: 9999}, User: &core.User{ID: u.ID},
	})
	assert.ErrorIs(t, err, core.ErrInvalidReference)

	tx, err := svc.Transactions.Create(ctx, core.Transaction{
		Amount:      decimal.RequireFromString("-42.10"),
		Description: "groceries",
		Type:        core.Expense,
		Date:        core.NewDate(2025, 4, 2),
		Category:    &core.Category{ID: food.ID},
		User:        &core.User{ID: u.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Food", tx.Category.Name)

	t.Run("by user", func(t *testing.T) {
		mine, err := svc.Transactions.GetByUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		none, err := svc.Transactions.GetByUser(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, none)

		missing, err := svc.Transactions.GetByUser(ctx, 9999)
		require.NoError(t, err)
		assert.NotNil(t, missing)
		assert.Empty(t, missing)
	})

	t.Run("update replaces fields and references", func(t *testing.T) {
		updated, err := svc.Transactions.Update(ctx, tx.ID, core.Transaction{
			Amount:   decimal.NewFromInt(900),
			Type:     core.Expense,
			Category: &core.Category{ID: rent.ID},
			User:     &core.User{ID: other.ID},
		})
		require.NoError(t, err)
		assert.True(t, updated.Amount.Equal(decimal.NewFromInt(900)))
		assert.Empty(t, updated.Description)
		assert.True(t, updated.Date.IsEmpty())
		assert.Equal(t, rent.ID, updated.CategoryID())
		assert.Equal(t, other.ID, updated.UserID())
	})

	t.Run("update keeps omitted references", func(t *testing.T) {
		updated, err := svc.Transactions.Update(ctx, tx.ID, core.Transaction{Amount: decimal.NewFromInt(5), Type: core.Income})
		require.NoError(t, err)
		assert.Equal(t, rent.ID, updated.CategoryID())
		assert.Equal(t, other.ID, updated.UserID())
		assert.Equal(t, core.Income, updated.Type)
	})

	_, err = svc.Transactions.Update(ctx, 9999, core.Transaction{Type: core.Income})
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = svc.Categories.Delete(ctx, rent.ID)
	assert.ErrorIs(t, err, core.ErrInUse)

	require.NoError(t, svc.Transactions.Delete(ctx, tx.ID))
	require.NoError(t, svc.Categories.Delete(ctx, rent.ID))

	assert.Contains(t, pub.actions(), "transaction:deleted")
}

func TestGoalService(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	u := registerUser(t, svc, "goal@x.io", "pw")

	g, err := svc.Goals.Create(ctx, core.Goal{Title: "Car", TargetAmount: decimal.NewFromInt(5000), User: &core.User{ID: u.ID}})
	require.NoError(t, err)
	require.NotNil(t, g.CurrentAmount)
	assert.True(t, g.CurrentAmount.IsZero(), "currentAmount defaults to zero")

	_, err = svc.Goals.Create(ctx, core.Goal{Title: "Orphan"})
	assert.ErrorIs(t, err, core.ErrMissingUser)

	updated, err := svc.Goals.Update(ctx, g.ID, core.Goal{
		Title:         "Bike",
		TargetAmount:  decimal.NewFromInt(800),
		CurrentAmount: core.AmountPtr(decimal.NewFromInt(100)),
		TargetDate:    core.NewDate(2026, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bike", updated.Title)
	assert.Equal(t, u.ID, updated.UserID(), "owner kept when omitted")
	assert.Equal(t, "2026-01-01", updated.TargetDate.String())

	goals, err := svc.Goals.GetByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, goals, 1)

	goals, err = svc.Goals.GetByUser(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, goals)

	_, err = svc.Goals.Update(ctx, 9999, core.Goal{Title: "x"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	u := registerUser(t, svc, "a@b.com", "secret")
	assert.Empty(t, u.Password)
	assert.Empty(t, u.PasswordHash)

	got, err := svc.Users.Login(ctx, "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	_, err = svc.Users.Login(ctx, "a@b.com", "Secret")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = svc.Users.Login(ctx, "nobody@b.com", "secret")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = svc.Users.Register(ctx, core.User{Name: "dup", Email: "a@b.com", Password: "x"})
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)

	_, err = svc.Users.Register(ctx, core.User{Name: "no email"})
	assert.ErrorIs(t, err, core.ErrEmptyEmail)
}

func TestUserService_PasswordEdges(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	registerUser(t, svc, "empty@x.io", "")
	_, err := svc.Users.Login(ctx, "empty@x.io", "")
	require.NoError(t, err)
	_, err = svc.Users.Login(ctx, "empty@x.io", "x")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	long := strings.Repeat("p", 80)
	registerUser(t, svc, "long@x.io", long)
	_, err = svc.Users.Login(ctx, "long@x.io", long)
	require.NoError(t, err)
	_, err = svc.Users.Login(ctx, "long@x.io", long[:79]+"q")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	_, err = svc.Users.Login(ctx, "long@x.io", long[:72])
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestUserService_Update(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	u := registerUser(t, svc, "old@x.io", "first")

	updated, err := svc.Users.Update(ctx, u.ID, core.User{Name: "New", Email: "new@x.io"})
	require.NoError(t, err)
	assert.Equal(t, "new@x.io", updated.Email)

	_, err = svc.Users.Login(ctx, "new@x.io", "first")
	require.NoError(t, err, "empty password keeps the stored hash")

	_, err = svc.Users.Update(ctx, u.ID, core.User{Name: "New", Email: "new@x.io", Password: "second"})
	require.NoError(t, err)
	_, err = svc.Users.Login(ctx, "new@x.io", "first")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	_, err = svc.Users.Login(ctx, "new@x.io", "second")
	assert.NoError(t, err)

	_, err = svc.Users.Update(ctx, 9999, core.User{Email: "z@x.io"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	users, err := svc.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	svc, pub := newTestServices(t)
	pub.err = errors.New("broker down")

	c, err := svc.Categories.Create(context.Background(), core.Category{Name: "Salary", Type: core.Income})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Len(t, pub.actions(), 1)
}

func TestNilPublisher(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	_, err := svc.Categories.Create(context.Background(), core.Category{Name: "Salary", Type: core.Income})
	require.NoError(t, err)
	require.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestCloseClosesPublisher(t *testing.T) {
	svc, pub := newTestServices(t)
	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}
