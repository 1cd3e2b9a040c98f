// Package seed fills a store with demo data. Everything goes through the
// services, so validation, password hashing and record events behave as
// they do for API requests.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"finora/internal/core"
	"finora/internal/log"
	"finora/internal/services"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "finora-demo"

type Result struct {
	Users        int
	Categories   int
	Transactions int
	Goals        int
}

type Seeder struct {
	svc    *services.Services
	faker  *gofakeit.Faker
	logger *log.Logger
	now    func() time.Time
}

// New returns a Seeder. A zero seed picks a random one.
func New(svc *services.Services, seed int64, logger *log.Logger) *Seeder {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Seeder{
		svc:    svc,
		faker:  gofakeit.New(seed),
		logger: logger.WithComponent(log.ComponentSeed),
		now:    time.Now,
	}
}

var demoCategories = []core.Category{
	{Name: "Salary", Icon: "💼", Type: core.Income},
	{Name: "Freelance", Icon: "🧾", Type: core.Income},
	{Name: "Groceries", Icon: "🛒", Type: core.Expense},
	{Name: "Rent", Icon: "🏠", Type: core.Expense},
	{Name: "Transport", Icon: "🚌", Type: core.Expense},
	{Name: "Leisure", Icon: "🎬", Type: core.Expense},
}

// Run creates count users, the demo categories, and for each user count
// transactions and one goal.
func (s *Seeder) Run(ctx context.Context, count int) (Result, error) {
	var res Result
	if count <= 0 {
		return res, fmt.Errorf("%w: seed count must be positive", core.ErrValidation)
	}

	categories := make([]core.Category, 0, len(demoCategories))
	for _, c := range demoCategories {
		c.Color = s.faker.HexColor()
		created, err := s.svc.Categories.Create(ctx, c)
		if err != nil {
			return res, fmt.Errorf("seed category %s: %w", c.Name, err)
		}
		categories = append(categories, created)
		res.Categories++
	}

	for i := 0; i < count; i++ {
		user, err := s.svc.Users.Register(ctx, core.User{
			Name:     s.faker.Name(),
			Email:    fmt.Sprintf("demo%d.%s", i+1, s.faker.Email()),
			Password: DemoPassword,
		})
		if err != nil {
			return res, fmt.Errorf("seed user: %w", err)
		}
		res.Users++

		for j := 0; j < count; j++ {
			category := categories[s.faker.Number(0, len(categories)-1)]
			if _, err := s.svc.Transactions.Create(ctx, s.transaction(user, category)); err != nil {
				return res, fmt.Errorf("seed transaction: %w", err)
			}
			res.Transactions++
		}

		if _, err := s.svc.Goals.Create(ctx, s.goal(user)); err != nil {
			return res, fmt.Errorf("seed goal: %w", err)
		}
		res.Goals++
	}

	s.logger.InfoContext(ctx, "Seed completed",
		"users", res.Users,
		"categories", res.Categories,
		"transactions", res.Transactions,
		"goals", res.Goals)
	return res, nil
}

func (s *Seeder) transaction(user core.User, category core.Category) core.Transaction {
	now := s.now()
	day := s.faker.DateRange(now.AddDate(0, -3, 0), now)
	return core.Transaction{
		Amount:      s.amount(5, 1500),
		Description: s.faker.Sentence(4),
		Type:        category.Type,
		Date:        core.NewDate(day.Year(), int(day.Month()), day.Day()),
		Category:    &core.Category{ID: category.ID},
		User:        &core.User{ID: user.ID},
	}
}

func (s *Seeder) goal(user core.User) core.Goal {
	target := s.amount(500, 20000)
	current := target.Mul(decimal.NewFromFloat(s.faker.Float64Range(0, 0.9))).Round(2)
	due := s.now().AddDate(0, s.faker.Number(1, 24), 0)
	return core.Goal{
		Title:         s.faker.RandomString([]string{"Emergency fund", "Holiday", "New laptop", "Car", "Wedding"}),
		TargetAmount:  target,
		CurrentAmount: core.AmountPtr(current),
		TargetDate:    core.NewDate(due.Year(), int(due.Month()), due.Day()),
		Description:   s.faker.Sentence(6),
		User:          &core.User{ID: user.ID},
	}
}

func (s *Seeder) amount(lo, hi float64) decimal.Decimal {
	return decimal.NewFromFloat(s.faker.Float64Range(lo, hi)).Round(2)
}
