// Package postgres implements repository.Store on PostgreSQL through a pgx
// connection pool. Amounts are NUMERIC in the schema and cross the wire as
// text so no value is ever rounded through float64.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"finora/internal/core"
	"finora/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// Open connects, migrates and returns a ready store.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	slog.Debug("Postgres store ready", "max_conns", cfg.MaxConns)
	return &Store{pool: pool}, nil
}

// RunMigrations applies the embedded schema through database/sql, which is
// what golang-migrate's pgx driver expects.
func RunMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := mpgx.WithInstance(db, &mpgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func mapError(op string, err error, onFK error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, onFK)
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, core.ErrDuplicateEmail)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func checkUpdated(op string, id int64, tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", op, id, core.ErrNotFound)
	}
	return nil
}

func dateParam(d core.Date) *string {
	if d.IsEmpty() {
		return nil
	}
	s := d.String()
	return &s
}

func dateFromText(s *string) (core.Date, error) {
	if s == nil {
		return core.Date{}, nil
	}
	return core.ParseDate(*s)
}

func amountFromText(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// --- users ---

const selectUser = `SELECT id, name, email, password_hash FROM users`

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	return u, err
}

func (s *Store) SaveUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == 0 {
		err := s.pool.QueryRow(ctx,
			`INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
			u.Name, u.Email, u.PasswordHash,
		).Scan(&u.ID)
		if err != nil {
			return core.User{}, mapError("create user", err, core.ErrInvalidReference)
		}
	} else {
		tag, err := s.pool.Exec(ctx,
			`UPDATE users SET name = $1, email = $2, password_hash = $3 WHERE id = $4`,
			u.Name, u.Email, u.PasswordHash, u.ID,
		)
		if err != nil {
			return core.User{}, mapError("update user", err, core.ErrInvalidReference)
		}
		if err := checkUpdated("update user", u.ID, tag); err != nil {
			return core.User{}, err
		}
	}
	u.Password = ""
	return u, nil
}

func (s *Store) FindUser(ctx context.Context, id int64) (core.User, bool, error) {
	return findOne(scanUser(s.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id)))
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (core.User, bool, error) {
	return findOne(scanUser(s.pool.QueryRow(ctx, selectUser+` WHERE email = $1`, email)))
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	return collect(ctx, s.pool, "list users", scanUser, selectUser+` ORDER BY id`)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return mapError("delete user", err, core.ErrInUse)
}

// --- categories ---

const selectCategory = `SELECT id, name, icon, color, type FROM categories`

func scanCategory(row pgx.Row) (core.Category, error) {
	var c core.Category
	var kind string
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &kind)
	c.Type = core.Kind(kind)
	return c, err
}

func (s *Store) SaveCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == 0 {
		err := s.pool.QueryRow(ctx,
			`INSERT INTO categories (name, icon, color, type) VALUES ($1, $2, $3, $4) RETURNING id`,
			c.Name, c.Icon, c.Color, string(c.Type),
		).Scan(&c.ID)
		if err != nil {
			return core.Category{}, mapError("create category", err, core.ErrInvalidReference)
		}
		return c, nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE categories SET name = $1, icon = $2, color = $3, type = $4 WHERE id = $5`,
		c.Name, c.Icon, c.Color, string(c.Type), c.ID,
	)
	if err != nil {
		return core.Category{}, mapError("update category", err, core.ErrInvalidReference)
	}
	return c, checkUpdated("update category", c.ID, tag)
}

func (s *Store) FindCategory(ctx context.Context, id int64) (core.Category, bool, error) {
	return findOne(scanCategory(s.pool.QueryRow(ctx, selectCategory+` WHERE id = $1`, id)))
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	return collect(ctx, s.pool, "list categories", scanCategory, selectCategory+` ORDER BY id`)
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return mapError("delete category", err, core.ErrInUse)
}

// --- transactions ---

const selectTransaction = `SELECT t.id, t.amount::text, t.description, t.type, t.date::text,
       c.id, c.name, c.icon, c.color, c.type,
       u.id, u.name, u.email
FROM transactions t
JOIN categories c ON c.id = t.category_id
JOIN users u ON u.id = t.user_id`

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t                core.Transaction
		c                core.Category
		u                core.User
		amount           string
		date             *string
		kind, categoryTy string
	)
	if err := row.Scan(
		&t.ID, &amount, &t.Description, &kind, &date,
		&c.ID, &c.Name, &c.Icon, &c.Color, &categoryTy,
		&u.ID, &u.Name, &u.Email,
	); err != nil {
		return core.Transaction{}, err
	}
	var err error
	if t.Amount, err = amountFromText(amount); err != nil {
		return core.Transaction{}, err
	}
	if t.Date, err = dateFromText(date); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.Kind(kind)
	c.Type = core.Kind(categoryTy)
	t.Category, t.User = &c, &u
	return t, nil
}

func (s *Store) SaveTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	id := t.ID
	if id == 0 {
		err := s.pool.QueryRow(ctx,
			`INSERT INTO transactions (amount, description, type, date, category_id, user_id)
			 VALUES ($1::numeric, $2, $3, $4::date, $5, $6) RETURNING id`,
			t.Amount.String(), t.Description, string(t.Type), dateParam(t.Date), t.CategoryID(), t.UserID(),
		).Scan(&id)
		if err != nil {
			return core.Transaction{}, mapError("create transaction", err, core.ErrInvalidReference)
		}
	} else {
		tag, err := s.pool.Exec(ctx,
			`UPDATE transactions
			 SET amount = $1::numeric, description = $2, type = $3, date = $4::date, category_id = $5, user_id = $6
			 WHERE id = $7`,
			t.Amount.String(), t.Description, string(t.Type), dateParam(t.Date), t.CategoryID(), t.UserID(), id,
		)
		if err != nil {
			return core.Transaction{}, mapError("update transaction", err, core.ErrInvalidReference)
		}
		if err := checkUpdated("update transaction", id, tag); err != nil {
			return core.Transaction{}, err
		}
	}
	return reload(s.FindTransaction(ctx, id))
}

func (s *Store) FindTransaction(ctx context.Context, id int64) (core.Transaction, bool, error) {
	return findOne(scanTransaction(s.pool.QueryRow(ctx, selectTransaction+` WHERE t.id = $1`, id)))
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return collect(ctx, s.pool, "list transactions", scanTransaction, selectTransaction+` ORDER BY t.id`)
}

func (s *Store) ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return collect(ctx, s.pool, "list transactions by user", scanTransaction,
		selectTransaction+` WHERE t.user_id = $1 ORDER BY t.id`, userID)
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	return mapError("delete transaction", err, core.ErrInUse)
}

// --- goals ---

const selectGoal = `SELECT g.id, g.title, g.target_amount::text, g.current_amount::text, g.target_date::text, g.description,
       u.id, u.name, u.email
FROM goals g
JOIN users u ON u.id = g.user_id`

func scanGoal(row pgx.Row) (core.Goal, error) {
	var (
		g       core.Goal
		u       core.User
		target  string
		current *string
		date    *string
	)
	if err := row.Scan(&g.ID, &g.Title, &target, &current, &date, &g.Description, &u.ID, &u.Name, &u.Email); err != nil {
		return core.Goal{}, err
	}
	var err error
	if g.TargetAmount, err = amountFromText(target); err != nil {
		return core.Goal{}, err
	}
	if current != nil {
		d, err := amountFromText(*current)
		if err != nil {
			return core.Goal{}, err
		}
		g.CurrentAmount = &d
	}
	if g.TargetDate, err = dateFromText(date); err != nil {
		return core.Goal{}, err
	}
	g.User = &u
	return g, nil
}

func (s *Store) SaveGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	var current *string
	if g.CurrentAmount != nil {
		v := g.CurrentAmount.String()
		current = &v
	}

	id := g.ID
	if id == 0 {
		err := s.pool.QueryRow(ctx,
			`INSERT INTO goals (title, target_amount, current_amount, target_date, description, user_id)
			 VALUES ($1, $2::numeric, $3::numeric, $4::date, $5, $6) RETURNING id`,
			g.Title, g.TargetAmount.String(), current, dateParam(g.TargetDate), g.Description, g.UserID(),
		).Scan(&id)
		if err != nil {
			return core.Goal{}, mapError("create goal", err, core.ErrInvalidReference)
		}
	} else {
		tag, err := s.pool.Exec(ctx,
			`UPDATE goals
			 SET title = $1, target_amount = $2::numeric, current_amount = $3::numeric,
			     target_date = $4::date, description = $5, user_id = $6
			 WHERE id = $7`,
			g.Title, g.TargetAmount.String(), current, dateParam(g.TargetDate), g.Description, g.UserID(), id,
		)
		if err != nil {
			return core.Goal{}, mapError("update goal", err, core.ErrInvalidReference)
		}
		if err := checkUpdated("update goal", id, tag); err != nil {
			return core.Goal{}, err
		}
	}
	return reload(s.FindGoal(ctx, id))
}

func (s *Store) FindGoal(ctx context.Context, id int64) (core.Goal, bool, error) {
	return findOne(scanGoal(s.pool.QueryRow(ctx, selectGoal+` WHERE g.id = $1`, id)))
}

func (s *Store) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return collect(ctx, s.pool, "list goals", scanGoal, selectGoal+` ORDER BY g.id`)
}

func (s *Store) ListGoalsByUser(ctx context.Context, userID int64) ([]core.Goal, error) {
	return collect(ctx, s.pool, "list goals by user", scanGoal, selectGoal+` WHERE g.user_id = $1 ORDER BY g.id`, userID)
}

func (s *Store) DeleteGoal(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM goals WHERE id = $1`, id)
	return mapError("delete goal", err, core.ErrInUse)
}

// --- helpers ---

func findOne[T any](v T, err error) (T, bool, error) {
	var zero T
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func reload[T any](v T, ok bool, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, core.ErrNotFound
	}
	return v, nil
}

func collect[T any](ctx context.Context, pool *pgxpool.Pool, op string, scan func(pgx.Row) (T, error), query string, args ...any) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
