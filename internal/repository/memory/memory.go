package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"finora/internal/core"
	"finora/internal/repository"
)

// Store keeps every table in maps behind a single mutex. References are held
// as ids and hydrated on read, the same shape the SQL backends return.
type Store struct {
	mu sync.Mutex

	nextID       map[string]int64
	users        map[int64]core.User
	categories   map[int64]core.Category
	transactions map[int64]txRow
	goals        map[int64]goalRow
}

type txRow struct {
	id          int64
	amount      decimal.Decimal
	description string
	kind        core.Kind
	date        core.Date
	categoryID  int64
	userID      int64
}

type goalRow struct {
	id            int64
	title         string
	targetAmount  decimal.Decimal
	currentAmount *decimal.Decimal
	targetDate    core.Date
	description   string
	userID        int64
}

// Ensure interface conformance
var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		nextID:       map[string]int64{},
		users:        map[int64]core.User{},
		categories:   map[int64]core.Category{},
		transactions: map[int64]txRow{},
		goals:        map[int64]goalRow{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// assignID returns the next key for table when id is zero. A non-zero id must
// already be present, which exists reports.
func (s *Store) assignID(table string, id int64, exists bool) (int64, error) {
	if id == 0 {
		s.nextID[table]++
		return s.nextID[table], nil
	}
	if !exists {
		return 0, fmt.Errorf("save %s %d: %w", table, id, core.ErrNotFound)
	}
	return id, nil
}

// --- users ---

func (s *Store) SaveUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.users {
		if id != u.ID && existing.Email == u.Email {
			return core.User{}, fmt.Errorf("save user: %w", core.ErrDuplicateEmail)
		}
	}
	_, exists := s.users[u.ID]
	id, err := s.assignID("users", u.ID, exists)
	if err != nil {
		return core.User{}, err
	}
	u.ID = id
	u.Password = ""
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) FindUser(_ context.Context, id int64) (core.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (core.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return core.User{}, false, nil
}

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, id := range sortedKeys(s.users) {
		out = append(out, s.users[id])
	}
	return out, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return nil
	}
	for _, t := range s.transactions {
		if t.userID == id {
			return fmt.Errorf("delete user %d: %w", id, core.ErrInUse)
		}
	}
	for _, g := range s.goals {
		if g.userID == id {
			return fmt.Errorf("delete user %d: %w", id, core.ErrInUse)
		}
	}
	delete(s.users, id)
	return nil
}

// --- categories ---

func (s *Store) SaveCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.categories[c.ID]
	id, err := s.assignID("categories", c.ID, exists)
	if err != nil {
		return core.Category{}, err
	}
	c.ID = id
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) FindCategory(_ context.Context, id int64) (core.Category, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	return c, ok, nil
}

func (s *Store) ListCategories(context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, id := range sortedKeys(s.categories) {
		out = append(out, s.categories[id])
	}
	return out, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.categoryID == id {
			return fmt.Errorf("delete category %d: %w", id, core.ErrInUse)
		}
	}
	delete(s.categories, id)
	return nil
}

// --- transactions ---

func (s *Store) SaveTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[t.CategoryID()]; !ok {
		return core.Transaction{}, fmt.Errorf("save transaction: category %d: %w", t.CategoryID(), core.ErrInvalidReference)
	}
	if _, ok := s.users[t.UserID()]; !ok {
		return core.Transaction{}, fmt.Errorf("save transaction: user %d: %w", t.UserID(), core.ErrInvalidReference)
	}

	_, exists := s.transactions[t.ID]
	id, err := s.assignID("transactions", t.ID, exists)
	if err != nil {
		return core.Transaction{}, err
	}

	row := txRow{
		id:          id,
		amount:      t.Amount,
		description: t.Description,
		kind:        t.Type,
		date:        t.Date,
		categoryID:  t.CategoryID(),
		userID:      t.UserID(),
	}
	s.transactions[row.id] = row
	return s.hydrateTransaction(row), nil
}

func (s *Store) FindTransaction(_ context.Context, id int64) (core.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, false, nil
	}
	return s.hydrateTransaction(row), true, nil
}

func (s *Store) ListTransactions(context.Context) ([]core.Transaction, error) {
	return s.listTransactions(func(txRow) bool { return true }), nil
}

func (s *Store) ListTransactionsByUser(_ context.Context, userID int64) ([]core.Transaction, error) {
	return s.listTransactions(func(r txRow) bool { return r.userID == userID }), nil
}

func (s *Store) listTransactions(keep func(txRow) bool) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, id := range sortedKeys(s.transactions) {
		if row := s.transactions[id]; keep(row) {
			out = append(out, s.hydrateTransaction(row))
		}
	}
	return out
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transactions, id)
	return nil
}

func (s *Store) hydrateTransaction(r txRow) core.Transaction {
	cat := s.categories[r.categoryID]
	user := s.users[r.userID].Public()
	return core.Transaction{
		ID:          r.id,
		Amount:      r.amount,
		Description: r.description,
		Type:        r.kind,
		Date:        r.date,
		Category:    &cat,
		User:        &user,
	}
}

// --- goals ---

func (s *Store) SaveGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[g.UserID()]; !ok {
		return core.Goal{}, fmt.Errorf("save goal: user %d: %w", g.UserID(), core.ErrInvalidReference)
	}

	_, exists := s.goals[g.ID]
	id, err := s.assignID("goals", g.ID, exists)
	if err != nil {
		return core.Goal{}, err
	}

	row := goalRow{
		id:           id,
		title:        g.Title,
		targetAmount: g.TargetAmount,
		targetDate:   g.TargetDate,
		description:  g.Description,
		userID:       g.UserID(),
	}
	if g.CurrentAmount != nil {
		row.currentAmount = core.AmountPtr(*g.CurrentAmount)
	}
	s.goals[row.id] = row
	return s.hydrateGoal(row), nil
}

func (s *Store) FindGoal(_ context.Context, id int64) (core.Goal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.goals[id]
	if !ok {
		return core.Goal{}, false, nil
	}
	return s.hydrateGoal(row), true, nil
}

func (s *Store) ListGoals(context.Context) ([]core.Goal, error) {
	return s.listGoals(func(goalRow) bool { return true }), nil
}

func (s *Store) ListGoalsByUser(_ context.Context, userID int64) ([]core.Goal, error) {
	return s.listGoals(func(r goalRow) bool { return r.userID == userID }), nil
}

func (s *Store) listGoals(keep func(goalRow) bool) []core.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Goal, 0)
	for _, id := range sortedKeys(s.goals) {
		if row := s.goals[id]; keep(row) {
			out = append(out, s.hydrateGoal(row))
		}
	}
	return out
}

func (s *Store) DeleteGoal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.goals, id)
	return nil
}

func (s *Store) hydrateGoal(r goalRow) core.Goal {
	user := s.users[r.userID].Public()
	g := core.Goal{
		ID:           r.id,
		Title:        r.title,
		TargetAmount: r.targetAmount,
		TargetDate:   r.targetDate,
		Description:  r.description,
		User:         &user,
	}
	if r.currentAmount != nil {
		g.CurrentAmount = core.AmountPtr(*r.currentAmount)
	}
	return g
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
