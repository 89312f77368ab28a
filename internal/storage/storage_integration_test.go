//go:build integration

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/testprep/internal/migrations"
	"github.com/magabrotheeeer/testprep/internal/models"
)

func setupTestDB(t *testing.T) *Storage {
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(s.DB, filepath.Join(root, "migrations")))
	return s
}

func TestIntegration_RecordAttemptNeverOvershootsQuota(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	user, err := s.RegisterUser(ctx, models.User{Email: "race@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	free, err := s.FindTariffByName(ctx, "free")
	require.NoError(t, err)

	quota := 3
	sub, err := s.CreateSubscription(ctx, models.Subscription{
		UserID: user.ID, TariffID: free.ID, Kind: models.KindPackage, Quota: &quota,
	})
	require.NoError(t, err)

	exam, err := s.CreateExam(ctx, models.Exam{
		Title: "Race", Type: "quiz",
		Parts: []models.Part{{PartTypes: []string{"single"}, Answers: []models.AnswerKey{models.Single("a")}}},
	})
	require.NoError(t, err)

	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		finished int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RecordAttempt(ctx, models.Attempt{
				SubscriptionID: sub.ID,
				UserID:         user.ID,
				Usage:          models.Usage{ExamID: exam.ID, Score: 100},
				Result:         models.GradingResult{ExamID: exam.ID},
			}, time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, models.ErrSubscriptionFinished):
				finished++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, quota, ok)
	assert.Equal(t, workers-quota, finished)

	current, err := s.FindActiveByUserAndKind(ctx, user.ID, models.KindPackage)
	require.NoError(t, err)
	assert.Equal(t, quota, current.Used())

	history, err := s.ListResults(ctx, user.ID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, history, quota)
}

func TestIntegration_SingleActivePerKind(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	user, err := s.RegisterUser(ctx, models.User{Email: "one@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	free, err := s.FindTariffByName(ctx, "free")
	require.NoError(t, err)

	quota := 5
	first, err := s.CreateSubscription(ctx, models.Subscription{UserID: user.ID, TariffID: free.ID, Kind: models.KindPackage, Quota: &quota})
	require.NoError(t, err)

	_, err = s.CreateSubscription(ctx, models.Subscription{UserID: user.ID, TariffID: free.ID, Kind: models.KindPackage, Quota: &quota})
	require.ErrorIs(t, err, models.ErrAlreadyExists)

	changed, err := s.Deactivate(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, changed)

	_, err = s.CreateSubscription(ctx, models.Subscription{UserID: user.ID, TariffID: free.ID, Kind: models.KindPackage, Quota: &quota})
	require.NoError(t, err)

	subs, err := s.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestIntegration_DeactivateExpired(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	user, err := s.RegisterUser(ctx, models.User{Email: "exp@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	days := 30
	premium, err := s.CreateTariff(ctx, models.Tariff{Name: "Premium", Kind: models.KindPremium, Degree: models.DegreeLimited, Price: 100, DurationDays: &days})
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	_, err = s.CreateSubscription(ctx, models.Subscription{UserID: user.ID, TariffID: premium.ID, Kind: models.KindPremium, ExpiresAt: &past})
	require.NoError(t, err)

	expired, err := s.DeactivateExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)

	_, err = s.FindActiveByUserAndKind(ctx, user.ID, models.KindPremium)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
