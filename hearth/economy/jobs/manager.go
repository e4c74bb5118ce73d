// Package jobs implements job assignment and paid work. A user holds at most
// one job at a time; the job is rolled at random on application and the pay
// currency is fixed at that moment.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hearthgate/hearth/hearth/database/models"
	"github.com/hearthgate/hearth/hearth/database/repositories"
	"github.com/hearthgate/hearth/hearth/economy"
	"github.com/hearthgate/hearth/hearth/economy/cooldown"
	"github.com/hearthgate/hearth/hearth/economy/ledger"
)

// jobChangeCooldown is the lock set on quit, blocking reapplication.
const jobChangeCooldown = 300 * time.Second

const paycheckNote = "Paycheck"

type Manager struct {
	jobs       repositories.JobRepository
	currencies repositories.CurrencyRepository
	ledger     *ledger.Ledger
	gate       *cooldown.Gate
	rand       economy.Rand
}

func NewManager(
	jobs repositories.JobRepository,
	currencies repositories.CurrencyRepository,
	ledger *ledger.Ledger,
	gate *cooldown.Gate,
	rand economy.Rand,
) *Manager {
	return &Manager{
		jobs:       jobs,
		currencies: currencies,
		ledger:     ledger,
		gate:       gate,
		rand:       rand,
	}
}

// Current returns the user's held job with relations loaded, or
// economy.ErrNoJob when unemployed.
func (m *Manager) Current(ctx context.Context, userID string) (*models.UserJob, error) {
	return m.jobs.GetUserJob(ctx, userID)
}

// List returns all jobs on offer.
func (m *Manager) List(ctx context.Context) ([]*models.Job, error) {
	return m.jobs.GetAll(ctx)
}

// Apply assigns a uniformly random job to an unemployed user. The pay
// currency is the job's pinned currency when set, otherwise a uniform choice
// among work-enabled currencies, and it sticks for the lifetime of the
// assignment. Applying sets no cooldown; only quitting does.
func (m *Manager) Apply(ctx context.Context, userID string) (*models.UserJob, error) {
	if _, err := m.jobs.GetUserJob(ctx, userID); err == nil {
		return nil, economy.ErrConflict
	} else if !errors.Is(err, economy.ErrNoJob) {
		return nil, err
	}

	remaining, err := m.gate.Check(ctx, userID, models.CooldownJobChange)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		return nil, &economy.CooldownError{Remaining: remaining}
	}

	allJobs, err := m.jobs.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(allJobs) == 0 {
		return nil, fmt.Errorf("no jobs seeded: %w", economy.ErrNotFound)
	}
	job := economy.Pick(m.rand, allJobs)

	currencyID, err := m.resolvePayCurrency(ctx, job)
	if err != nil {
		return nil, err
	}

	userJob := &models.UserJob{
		UserID:     userID,
		JobID:      job.ID,
		CurrencyID: currencyID,
	}
	if err := m.jobs.Assign(ctx, userJob); err != nil {
		return nil, err
	}

	slog.Info("Job assigned",
		slog.String("user_id", userID),
		slog.String("job", job.Name),
		slog.Int64("currency_id", currencyID))

	return m.jobs.GetUserJob(ctx, userID)
}

// Quit releases the held job, locks job changes for five minutes, and drops
// any stale work cooldown left over from the old job.
func (m *Manager) Quit(ctx context.Context, userID string) error {
	userJob, err := m.jobs.GetUserJob(ctx, userID)
	if err != nil {
		return err
	}

	if err := m.gate.Set(ctx, userID, models.CooldownJobChange, jobChangeCooldown); err != nil {
		return err
	}
	if err := m.gate.Clear(ctx, userID, models.CooldownWork); err != nil {
		return err
	}
	if err := m.jobs.Remove(ctx, userID); err != nil {
		return err
	}

	slog.Info("Job quit",
		slog.String("user_id", userID),
		slog.Int64("job_id", userJob.JobID))

	return nil
}

// Work rolls a paycheck for the held job, credits the ledger, and arms the
// work cooldown for the job's full cooldown window. The raw roll lands in
// [MinPay, MaxPay] and is divided by the pay currency's value multiplier
// before crediting.
func (m *Manager) Work(ctx context.Context, userID string) (*models.Currency, decimal.Decimal, error) {
	userJob, err := m.jobs.GetUserJob(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	job, currency := userJob.Job, userJob.Currency

	// Arming the cooldown decides the race between concurrent calls; only
	// the winner pays.
	won, err := m.gate.Arm(ctx, userID, models.CooldownWork, job.CooldownDuration())
	if err != nil {
		return nil, decimal.Zero, err
	}
	if !won {
		remaining, err := m.gate.Check(ctx, userID, models.CooldownWork)
		if err != nil {
			return nil, decimal.Zero, err
		}
		return nil, decimal.Zero, &economy.CooldownError{Remaining: remaining}
	}

	roll := economy.IntBetween(m.rand, job.MinPay, job.MaxPay)
	amount := currency.Round(decimal.NewFromInt(roll).Div(currency.ValueMultiplier))

	if _, err := m.ledger.ApplyDelta(ctx, userID, currency.ID, amount, paycheckNote, false); err != nil {
		if clearErr := m.gate.Clear(ctx, userID, models.CooldownWork); clearErr != nil {
			slog.Error("Failed to release work cooldown after credit failure",
				slog.String("user_id", userID),
				slog.Any("error", clearErr))
		}
		return nil, decimal.Zero, err
	}

	slog.Info("Paycheck credited",
		slog.String("user_id", userID),
		slog.String("job", job.Name),
		slog.String("amount", currency.Format(amount)))

	return currency, amount, nil
}

func (m *Manager) resolvePayCurrency(ctx context.Context, job *models.Job) (int64, error) {
	if job.OverriddenCurrencyID != nil {
		return *job.OverriddenCurrencyID, nil
	}
	workable, err := m.currencies.ListWorkable(ctx)
	if err != nil {
		return 0, err
	}
	if len(workable) == 0 {
		return 0, fmt.Errorf("no work-enabled currency: %w", economy.ErrNotFound)
	}
	return economy.Pick(m.rand, workable).ID, nil
}
