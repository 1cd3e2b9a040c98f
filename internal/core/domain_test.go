package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindValid(t *testing.T) {
	assert.True(t, Income.Valid())
	assert.True(t, Expense.Valid())
	assert.False(t, Kind("").Valid())
	assert.False(t, Kind("Income").Valid())
}

func TestCategoryValidate(t *testing.T) {
	good := Category{Name: "Food", Icon: "🍔", Color: "red", Type: Expense}
	require.NoError(t, good.Validate())

	cases := []struct {
		name string
		c    Category
		want error
	}{
		{"empty name", Category{Name: "  ", Type: Expense}, ErrEmptyName},
		{"bad type", Category{Name: "Food", Type: "other"}, ErrInvalidKind},
		{"missing type", Category{Name: "Food"}, ErrInvalidKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.Validate()
			require.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Amount:   decimal.RequireFromString("-12.50"),
		Type:     Expense,
		Date:     NewDate(2025, 3, 14),
		Category: &Category{ID: 1},
		User:     &User{ID: 2},
	}
	require.NoError(t, good.Validate())
	assert.Equal(t, int64(1), good.CategoryID())
	assert.Equal(t, int64(2), good.UserID())

	noCategory := good
	noCategory.Category = nil
	assert.ErrorIs(t, noCategory.Validate(), ErrMissingCategory)
	assert.Equal(t, int64(0), noCategory.CategoryID())

	noUser := good
	noUser.User = &User{}
	assert.ErrorIs(t, noUser.Validate(), ErrMissingUser)

	badType := good
	badType.Type = "transfer"
	assert.ErrorIs(t, badType.Validate(), ErrInvalidKind)
}

func TestGoalValidate(t *testing.T) {
	assert.ErrorIs(t, Goal{Title: "Trip"}.Validate(), ErrMissingUser)
	assert.NoError(t, Goal{Title: "Trip", User: &User{ID: 7}}.Validate())
	assert.Equal(t, int64(0), Goal{}.UserID())
}

func TestUserValidateAndPublic(t *testing.T) {
	assert.ErrorIs(t, User{Name: "Ana"}.Validate(), ErrEmptyEmail)

	u := User{ID: 3, Name: "Ana", Email: "a@b.com", Password: "secret", PasswordHash: "$2a$..."}
	require.NoError(t, u.Validate())

	pub := u.Public()
	assert.Empty(t, pub.Password)
	assert.Empty(t, pub.PasswordHash)

	b, err := json.Marshal(pub)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"name":"Ana","email":"a@b.com"}`, string(b))
}

func TestTransactionJSONShape(t *testing.T) {
	in := `{"amount": 12.5, "description": "lunch", "type": "expense",
		"date": "2025-01-15", "category": {"id": 4}, "user": {"id": 9}}`

	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(in), &tx))
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "2025-01-15", tx.Date.String())
	assert.Equal(t, int64(4), tx.CategoryID())
	assert.Equal(t, int64(9), tx.UserID())

	out, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"amount":12.5`)
	assert.Contains(t, string(out), `"date":"2025-01-15"`)
}

func TestGoalCurrentAmountNullable(t *testing.T) {
	var g Goal
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Car","targetAmount":1000}`), &g))
	assert.Nil(t, g.CurrentAmount)
	assert.True(t, g.TargetDate.IsEmpty())

	require.NoError(t, json.Unmarshal([]byte(`{"title":"Car","targetAmount":1000,"currentAmount":250.75}`), &g))
	require.NotNil(t, g.CurrentAmount)
	assert.True(t, SameAmount(g.CurrentAmount, AmountPtr(decimal.RequireFromString("250.75"))))
}

func TestSameAmount(t *testing.T) {
	a := AmountPtr(decimal.RequireFromString("1.50"))
	b := AmountPtr(decimal.RequireFromString("1.5"))
	assert.True(t, SameAmount(a, b))
	assert.True(t, SameAmount(nil, nil))
	assert.False(t, SameAmount(a, nil))
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrNotFound, ErrValidation))
	assert.False(t, errors.Is(ErrInvalidReference, ErrValidation))
}
