package sessions

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/observability"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store/sqlite"
)

func TestSweepRemovesOnlyExpiredKeys(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer st.Close()

	acct := &auth.Account{ID: "id-1", Name: "alice", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.CreateAccount(ctx, acct))

	now := time.Now().UTC()
	require.NoError(t, st.CreateKey(ctx, "id-1", "stale", now.Add(-2*time.Hour)))
	require.NoError(t, st.CreateKey(ctx, "id-1", "fresh", now.Add(-time.Minute)))

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	sweeper := NewSweeper(st, time.Hour, time.Minute, logger, metrics)

	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.KeysExpiredTotal))

	_, err = st.KeyTimestamp(ctx, "id-1", "stale")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.KeyTimestamp(ctx, "id-1", "fresh")
	assert.NoError(t, err)
}

func TestSweepNothingExpired(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer st.Close()

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	sweeper := NewSweeper(st, time.Hour, time.Minute, logger, metrics)

	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.KeysExpiredTotal))
}

func TestSweeperDisabledWithoutExpiration(t *testing.T) {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer st.Close()

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	sweeper := NewSweeper(st, 0, time.Minute, logger, nil)

	require.NoError(t, sweeper.Start())
	assert.Nil(t, sweeper.cron)
	sweeper.Stop()
}

func TestSweeperStartStop(t *testing.T) {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer st.Close()

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	sweeper := NewSweeper(st, time.Hour, time.Minute, logger, nil)

	require.NoError(t, sweeper.Start())
	require.NotNil(t, sweeper.cron)
	sweeper.Stop()
}
