package tests

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bemyval/valentine-api/app/dto"
	businessflow "github.com/bemyval/valentine-api/business_flow"
	"github.com/bemyval/valentine-api/config"
	"github.com/bemyval/valentine-api/repository"
	testingutil "github.com/bemyval/valentine-api/testing"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStatsCache(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		mr := miniredis.RunT(t)
		rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rc.Close()

		fixtures := testingutil.NewTestFixtures(testDB)

		valentineRepo := repository.NewValentineRepository(testDB.DB)
		responseRepo := repository.NewValentineResponseRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		cacheCfg := &config.CacheConfig{
			RedisPrefix: "test:",
			DefaultTTL:  time.Minute,
		}

		flow := businessflow.NewValentineFlow(valentineRepo, responseRepo, auditRepo, nil, rc, cacheCfg, testDB.DB)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		valentine, err := fixtures.CreateTestValentine(user.ID, "cached-page")
		require.NoError(t, err)

		t.Run("FirstListPopulatesCache", func(t *testing.T) {
			result, err := flow.ListValentines(context.Background(), user.ID, 1, 20)
			require.NoError(t, err)
			assert.Equal(t, int64(1), result.Stats.Total)

			keys := mr.Keys()
			require.NotEmpty(t, keys)
			assert.Contains(t, keys[0], "test:valentine_stats:")
		})

		t.Run("CachedStatsMayLagBehindViews", func(t *testing.T) {
			require.NoError(t, valentineRepo.IncrementViews(context.Background(), valentine.ID))

			result, err := flow.ListValentines(context.Background(), user.ID, 1, 20)
			require.NoError(t, err)
			assert.Equal(t, int64(0), result.Stats.TotalViews)
		})

		t.Run("ExpiryRefreshesStats", func(t *testing.T) {
			mr.FastForward(2 * time.Minute)

			result, err := flow.ListValentines(context.Background(), user.ID, 1, 20)
			require.NoError(t, err)
			assert.Equal(t, int64(1), result.Stats.TotalViews)
		})

		t.Run("CreateInvalidatesCache", func(t *testing.T) {
			req := &dto.CreateValentineRequest{Name: "Newcomer"}
			_, err := flow.CreateValentine(context.Background(), user.ID, req, testMetadata())
			require.NoError(t, err)

			result, err := flow.ListValentines(context.Background(), user.ID, 1, 20)
			require.NoError(t, err)
			assert.Equal(t, int64(2), result.Stats.Total)
		})

		t.Run("DeleteInvalidatesCache", func(t *testing.T) {
			err := flow.DeleteValentine(context.Background(), user.ID, valentine.UUID.String(), testMetadata())
			require.NoError(t, err)

			result, err := flow.ListValentines(context.Background(), user.ID, 1, 20)
			require.NoError(t, err)
			assert.Equal(t, int64(1), result.Stats.Total)

			// Sanity: the deleted page really is gone
			row, err := valentineRepo.ByUUID(context.Background(), valentine.UUID.String())
			require.NoError(t, err)
			assert.Nil(t, row)
		})

		return nil
	})
	require.NoError(t, err)
}
