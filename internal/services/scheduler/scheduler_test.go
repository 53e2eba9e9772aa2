package scheduler

import (
	"log"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/repository"
)

func testConf(maxAge, idle int) func() *config.Config {
	cfg := &config.Config{}
	cfg.Session.MaxAge = maxAge
	cfg.Session.IdleTimeout = idle
	return func() *config.Config { return cfg }
}

func TestRunSessionCleanup(t *testing.T) {
	repo := repository.NewMemorySessionRepository()
	now := time.Now()
	require.NoError(t, repo.Create(&models.Session{
		ID: "idle", CreateTime: now, LastRequest: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, repo.Create(&models.Session{
		ID: "old", CreateTime: now.Add(-48 * time.Hour), LastRequest: now,
	}))
	require.NoError(t, repo.Create(&models.Session{
		ID: "fresh", CreateTime: now, LastRequest: now,
	}))

	svc := New(repo, testConf(24*3600, 3600), WithLogger(log.Default()))
	svc.runSessionCleanup()

	_, err := repo.GetByID("idle")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	_, err = repo.GetByID("old")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	_, err = repo.GetByID("fresh")
	assert.NoError(t, err)
}

func TestRunSessionCleanupDisabledTimeouts(t *testing.T) {
	repo := repository.NewMemorySessionRepository()
	now := time.Now()
	require.NoError(t, repo.Create(&models.Session{
		ID: "s", CreateTime: now.Add(-100 * time.Hour), LastRequest: now.Add(-100 * time.Hour),
	}))

	svc := New(repo, testConf(0, 0))
	svc.runSessionCleanup()

	_, err := repo.GetByID("s")
	assert.NoError(t, err, "zero timeouts disable both sweeps")
}

func TestStartRegistersJob(t *testing.T) {
	repo := repository.NewMemorySessionRepository()
	engine := cron.New(cron.WithLocation(time.UTC))

	svc := New(repo, testConf(3600, 600), WithCron(engine), WithSchedule("@every 1m"))
	require.NoError(t, svc.Start())
	t.Cleanup(svc.Stop)

	assert.Len(t, engine.Entries(), 1)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	svc := New(repository.NewMemorySessionRepository(), testConf(0, 0), WithSchedule("not a schedule"))
	assert.Error(t, svc.Start())
}
