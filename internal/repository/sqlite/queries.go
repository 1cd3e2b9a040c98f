package sqlite

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"finora/internal/core"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type UserRow struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
}

type CategoryRow struct {
	ID    int64
	Name  string
	Icon  string
	Color string
	Type  string
}

// TransactionRow is a transaction joined with its category and user.
type TransactionRow struct {
	ID            int64
	Amount        decimal.Decimal
	Description   string
	Type          string
	Date          core.Date
	CategoryID    int64
	CategoryName  string
	CategoryIcon  string
	CategoryColor string
	CategoryType  string
	UserID        int64
	UserName      string
	UserEmail     string
}

// GoalRow is a goal joined with its user.
type GoalRow struct {
	ID            int64
	Title         string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.NullDecimal
	TargetDate    core.Date
	Description   string
	UserID        int64
	UserName      string
	UserEmail     string
}

// --- users ---

const createUser = `INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?) RETURNING id`

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createUser, arg.Name, arg.Email, arg.PasswordHash).Scan(&id)
	return id, err
}

const updateUser = `UPDATE users SET name = ?, email = ?, password_hash = ? WHERE id = ?`

type UpdateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	ID           int64
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUser, arg.Name, arg.Email, arg.PasswordHash, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const selectUser = `SELECT id, name, email, password_hash FROM users`

func scanUser(row interface{ Scan(...any) error }) (UserRow, error) {
	var u UserRow
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	return u, err
}

func (q *Queries) GetUser(ctx context.Context, id int64) (UserRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (UserRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, selectUser+` WHERE email = ?`, email))
}

func (q *Queries) ListUsers(ctx context.Context) ([]UserRow, error) {
	rows, err := q.db.QueryContext(ctx, selectUser+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []UserRow{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// --- categories ---

const createCategory = `INSERT INTO categories (name, icon, color, type) VALUES (?, ?, ?, ?) RETURNING id`

type CategoryParams struct {
	Name  string
	Icon  string
	Color string
	Type  string
	ID    int64
}

func (q *Queries) CreateCategory(ctx context.Context, arg CategoryParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createCategory, arg.Name, arg.Icon, arg.Color, arg.Type).Scan(&id)
	return id, err
}

const updateCategory = `UPDATE categories SET name = ?, icon = ?, color = ?, type = ? WHERE id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, arg CategoryParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateCategory, arg.Name, arg.Icon, arg.Color, arg.Type, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const selectCategory = `SELECT id, name, icon, color, type FROM categories`

func scanCategory(row interface{ Scan(...any) error }) (CategoryRow, error) {
	var c CategoryRow
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Type)
	return c, err
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (CategoryRow, error) {
	return scanCategory(q.db.QueryRowContext(ctx, selectCategory+` WHERE id = ?`, id))
}

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, selectCategory+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CategoryRow{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// --- transactions ---

const createTransaction = `INSERT INTO transactions (amount, description, type, date, category_id, user_id)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`

type TransactionParams struct {
	Amount      decimal.Decimal
	Description string
	Type        string
	Date        core.Date
	CategoryID  int64
	UserID      int64
	ID          int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg TransactionParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createTransaction,
		arg.Amount.String(), arg.Description, arg.Type, arg.Date, arg.CategoryID, arg.UserID,
	).Scan(&id)
	return id, err
}

const updateTransaction = `UPDATE transactions
SET amount = ?, description = ?, type = ?, date = ?, category_id = ?, user_id = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg TransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Amount.String(), arg.Description, arg.Type, arg.Date, arg.CategoryID, arg.UserID, arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const selectTransaction = `SELECT t.id, t.amount, t.description, t.type, t.date,
       c.id, c.name, c.icon, c.color, c.type,
       u.id, u.name, u.email
FROM transactions t
JOIN categories c ON c.id = t.category_id
JOIN users u ON u.id = t.user_id`

func scanTransaction(row interface{ Scan(...any) error }) (TransactionRow, error) {
	var t TransactionRow
	err := row.Scan(
		&t.ID, &t.Amount, &t.Description, &t.Type, &t.Date,
		&t.CategoryID, &t.CategoryName, &t.CategoryIcon, &t.CategoryColor, &t.CategoryType,
		&t.UserID, &t.UserName, &t.UserEmail,
	)
	return t, err
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, selectTransaction+` WHERE t.id = ?`, id))
}

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	return q.listTransactions(ctx, selectTransaction+` ORDER BY t.id`)
}

func (q *Queries) ListTransactionsByUser(ctx context.Context, userID int64) ([]TransactionRow, error) {
	return q.listTransactions(ctx, selectTransaction+` WHERE t.user_id = ? ORDER BY t.id`, userID)
}

func (q *Queries) listTransactions(ctx context.Context, query string, args ...any) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []TransactionRow{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

// --- goals ---

const createGoal = `INSERT INTO goals (title, target_amount, current_amount, target_date, description, user_id)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`

type GoalParams struct {
	Title         string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.NullDecimal
	TargetDate    core.Date
	Description   string
	UserID        int64
	ID            int64
}

func (q *Queries) CreateGoal(ctx context.Context, arg GoalParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createGoal,
		arg.Title, arg.TargetAmount.String(), nullAmount(arg.CurrentAmount), arg.TargetDate, arg.Description, arg.UserID,
	).Scan(&id)
	return id, err
}

const updateGoal = `UPDATE goals
SET title = ?, target_amount = ?, current_amount = ?, target_date = ?, description = ?, user_id = ?
WHERE id = ?`

func (q *Queries) UpdateGoal(ctx context.Context, arg GoalParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateGoal,
		arg.Title, arg.TargetAmount.String(), nullAmount(arg.CurrentAmount), arg.TargetDate,
		arg.Description, arg.UserID, arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const selectGoal = `SELECT g.id, g.title, g.target_amount, g.current_amount, g.target_date, g.description,
       u.id, u.name, u.email
FROM goals g
JOIN users u ON u.id = g.user_id`

func scanGoal(row interface{ Scan(...any) error }) (GoalRow, error) {
	var g GoalRow
	err := row.Scan(
		&g.ID, &g.Title, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate, &g.Description,
		&g.UserID, &g.UserName, &g.UserEmail,
	)
	return g, err
}

func (q *Queries) GetGoal(ctx context.Context, id int64) (GoalRow, error) {
	return scanGoal(q.db.QueryRowContext(ctx, selectGoal+` WHERE g.id = ?`, id))
}

func (q *Queries) ListGoals(ctx context.Context) ([]GoalRow, error) {
	return q.listGoals(ctx, selectGoal+` ORDER BY g.id`)
}

func (q *Queries) ListGoalsByUser(ctx context.Context, userID int64) ([]GoalRow, error) {
	return q.listGoals(ctx, selectGoal+` WHERE g.user_id = ? ORDER BY g.id`, userID)
}

func (q *Queries) listGoals(ctx context.Context, query string, args ...any) ([]GoalRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GoalRow{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteGoal(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	return err
}

// nullAmount keeps amounts as TEXT so the driver never rounds through float64.
func nullAmount(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}
