package app

import (
	"context"
	"testing"
	"time"

	"bitwise74/web-starter/config"

	"github.com/jellydator/ttlcache/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"
	v "github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseReleasesResources(t *testing.T) {
	v.Reset()
	t.Cleanup(v.Reset)
	t.Chdir(t.TempDir())
	t.Setenv("AUTH_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "file:"+gonanoid.Must(12)+"?mode=memory&cache=shared")
	require.NoError(t, config.Load())

	a, err := New()
	require.NoError(t, err)
	require.NoError(t, a.StartJobs())

	sqlDB, err := a.Deps.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	a.Close()

	assert.Error(t, sqlDB.Ping(), "db pool is closed")

	_, err = a.cache.Get(context.Background(), "token")
	assert.ErrorIs(t, err, ttlcache.ErrClosed)

	select {
	case <-a.cron.Stop().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("cron scheduler still running")
	}
}
