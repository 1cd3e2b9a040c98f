package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"finora/internal/core"
	"finora/internal/repository"
)

// Store is the SQLite implementation of repository.Store.
type Store struct {
	db      *sql.DB
	queries *Queries
}

var _ repository.Store = (*Store)(nil)

// dsn enables foreign keys on every pooled connection.
func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open creates the database directory if needed, applies migrations and
// returns a ready store.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("SQLite store ready", "path", dbPath)
	return &Store{db: db, queries: New(db)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// mapError translates constraint failures into domain errors. onFK is the
// error a foreign-key failure means for the statement at hand.
func mapError(op string, err error, onFK error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%s: %w", op, onFK)
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%s: %w", op, core.ErrDuplicateEmail)
		}
	}
	// Some builds only report the primary result code.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%s: %w", op, onFK)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateEmail)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func updated(op string, id, n int64) error {
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, core.ErrNotFound)
	}
	return nil
}

// --- users ---

func (s *Store) SaveUser(ctx context.Context, u core.User) (core.User, error) {
	id := u.ID
	if id == 0 {
		newID, err := s.queries.CreateUser(ctx, CreateUserParams{
			Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash,
		})
		if err != nil {
			return core.User{}, mapError("create user", err, core.ErrInvalidReference)
		}
		id = newID
	} else {
		n, err := s.queries.UpdateUser(ctx, UpdateUserParams{
			Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash, ID: id,
		})
		if err != nil {
			return core.User{}, mapError("update user", err, core.ErrInvalidReference)
		}
		if err := updated("update user", id, n); err != nil {
			return core.User{}, err
		}
	}
	return s.mustFindUser(ctx, id)
}

func (s *Store) mustFindUser(ctx context.Context, id int64) (core.User, error) {
	u, ok, err := s.FindUser(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	if !ok {
		return core.User{}, fmt.Errorf("reload user %d: %w", id, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) FindUser(ctx context.Context, id int64) (core.User, bool, error) {
	row, err := s.queries.GetUser(ctx, id)
	return findOne(row, err, userFromRow, "get user")
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (core.User, bool, error) {
	row, err := s.queries.GetUserByEmail(ctx, email)
	return findOne(row, err, userFromRow, "get user by email")
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return mapRows(rows, userFromRow), nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return mapError("delete user", s.queries.DeleteUser(ctx, id), core.ErrInUse)
}

// --- categories ---

func (s *Store) SaveCategory(ctx context.Context, c core.Category) (core.Category, error) {
	params := CategoryParams{Name: c.Name, Icon: c.Icon, Color: c.Color, Type: string(c.Type), ID: c.ID}
	if c.ID == 0 {
		id, err := s.queries.CreateCategory(ctx, params)
		if err != nil {
			return core.Category{}, mapError("create category", err, core.ErrInvalidReference)
		}
		c.ID = id
		return c, nil
	}
	n, err := s.queries.UpdateCategory(ctx, params)
	if err != nil {
		return core.Category{}, mapError("update category", err, core.ErrInvalidReference)
	}
	if err := updated("update category", c.ID, n); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *Store) FindCategory(ctx context.Context, id int64) (core.Category, bool, error) {
	row, err := s.queries.GetCategory(ctx, id)
	return findOne(row, err, categoryFromRow, "get category")
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return mapRows(rows, categoryFromRow), nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return mapError("delete category", s.queries.DeleteCategory(ctx, id), core.ErrInUse)
}

// --- transactions ---

func (s *Store) SaveTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	params := TransactionParams{
		Amount:      t.Amount,
		Description: t.Description,
		Type:        string(t.Type),
		Date:        t.Date,
		CategoryID:  t.CategoryID(),
		UserID:      t.UserID(),
		ID:          t.ID,
	}
	id := t.ID
	if id == 0 {
		newID, err := s.queries.CreateTransaction(ctx, params)
		if err != nil {
			return core.Transaction{}, mapError("create transaction", err, core.ErrInvalidReference)
		}
		id = newID
	} else {
		n, err := s.queries.UpdateTransaction(ctx, params)
		if err != nil {
			return core.Transaction{}, mapError("update transaction", err, core.ErrInvalidReference)
		}
		if err := updated("update transaction", id, n); err != nil {
			return core.Transaction{}, err
		}
	}

	saved, ok, err := s.FindTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if !ok {
		return core.Transaction{}, fmt.Errorf("reload transaction %d: %w", id, core.ErrNotFound)
	}
	return saved, nil
}

func (s *Store) FindTransaction(ctx context.Context, id int64) (core.Transaction, bool, error) {
	row, err := s.queries.GetTransaction(ctx, id)
	return findOne(row, err, transactionFromRow, "get transaction")
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return mapRows(rows, transactionFromRow), nil
}

func (s *Store) ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := s.queries.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for user %d: %w", userID, err)
	}
	return mapRows(rows, transactionFromRow), nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.queries.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// --- goals ---

func (s *Store) SaveGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	params := GoalParams{
		Title:        g.Title,
		TargetAmount: g.TargetAmount,
		TargetDate:   g.TargetDate,
		Description:  g.Description,
		UserID:       g.UserID(),
		ID:           g.ID,
	}
	if g.CurrentAmount != nil {
		params.CurrentAmount = decimal.NewNullDecimal(*g.CurrentAmount)
	}

	id := g.ID
	if id == 0 {
		newID, err := s.queries.CreateGoal(ctx, params)
		if err != nil {
			return core.Goal{}, mapError("create goal", err, core.ErrInvalidReference)
		}
		id = newID
	} else {
		n, err := s.queries.UpdateGoal(ctx, params)
		if err != nil {
			return core.Goal{}, mapError("update goal", err, core.ErrInvalidReference)
		}
		if err := updated("update goal", id, n); err != nil {
			return core.Goal{}, err
		}
	}

	saved, ok, err := s.FindGoal(ctx, id)
	if err != nil {
		return core.Goal{}, err
	}
	if !ok {
		return core.Goal{}, fmt.Errorf("reload goal %d: %w", id, core.ErrNotFound)
	}
	return saved, nil
}

func (s *Store) FindGoal(ctx context.Context, id int64) (core.Goal, bool, error) {
	row, err := s.queries.GetGoal(ctx, id)
	return findOne(row, err, goalFromRow, "get goal")
}

func (s *Store) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := s.queries.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return mapRows(rows, goalFromRow), nil
}

func (s *Store) ListGoalsByUser(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := s.queries.ListGoalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals for user %d: %w", userID, err)
	}
	return mapRows(rows, goalFromRow), nil
}

func (s *Store) DeleteGoal(ctx context.Context, id int64) error {
	if err := s.queries.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// --- row mapping ---

// findOne adapts a single-row query result to the (value, found, error)
// shape of the repository ports.
func findOne[R, T any](row R, err error, conv func(R) T, op string) (T, bool, error) {
	var zero T
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("%s: %w", op, err)
	}
	return conv(row), true, nil
}

func mapRows[R, T any](rows []R, conv func(R) T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, conv(r))
	}
	return out
}

func userFromRow(r UserRow) core.User {
	return core.User{ID: r.ID, Name: r.Name, Email: r.Email, PasswordHash: r.PasswordHash}
}

func categoryFromRow(r CategoryRow) core.Category {
	return core.Category{ID: r.ID, Name: r.Name, Icon: r.Icon, Color: r.Color, Type: core.Kind(r.Type)}
}

func transactionFromRow(r TransactionRow) core.Transaction {
	return core.Transaction{
		ID:          r.ID,
		Amount:      r.Amount,
		Description: r.Description,
		Type:        core.Kind(r.Type),
		Date:        r.Date,
		Category: &core.Category{
			ID:    r.CategoryID,
			Name:  r.CategoryName,
			Icon:  r.CategoryIcon,
			Color: r.CategoryColor,
			Type:  core.Kind(r.CategoryType),
		},
		User: &core.User{ID: r.UserID, Name: r.UserName, Email: r.UserEmail},
	}
}

func goalFromRow(r GoalRow) core.Goal {
	g := core.Goal{
		ID:           r.ID,
		Title:        r.Title,
		TargetAmount: r.TargetAmount,
		TargetDate:   r.TargetDate,
		Description:  r.Description,
		User:         &core.User{ID: r.UserID, Name: r.UserName, Email: r.UserEmail},
	}
	if r.CurrentAmount.Valid {
		g.CurrentAmount = core.AmountPtr(r.CurrentAmount.Decimal)
	}
	return g
}
