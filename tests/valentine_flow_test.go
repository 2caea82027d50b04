package tests

import (
	"context"
	"testing"
	"time"

	"github.com/bemyval/valentine-api/app/dto"
	"github.com/bemyval/valentine-api/app/services"
	businessflow "github.com/bemyval/valentine-api/business_flow"
	"github.com/bemyval/valentine-api/config"
	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/repository"
	testingutil "github.com/bemyval/valentine-api/testing"
	"github.com/bemyval/valentine-api/utils"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValentineFlow(testDB *testingutil.TestDB, store services.MediaStore) businessflow.ValentineFlow {
	valentineRepo := repository.NewValentineRepository(testDB.DB)
	responseRepo := repository.NewValentineResponseRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	cacheCfg := &config.CacheConfig{
		RedisPrefix: "test:",
		DefaultTTL:  time.Minute,
	}

	return businessflow.NewValentineFlow(valentineRepo, responseRepo, auditRepo, store, nil, cacheCfg, testDB.DB)
}

func testMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")
}

func TestCreateValentine(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newValentineFlow(testDB, nil)
		valentineRepo := repository.NewValentineRepository(testDB.DB)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("WithCustomURL", func(t *testing.T) {
			req := &dto.CreateValentineRequest{
				Name:      "Sarah",
				CustomURL: utils.ToPtr("  Sarah And John!! "),
			}

			result, err := flow.CreateValentine(context.Background(), user.ID, req, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, "sarah-and-john", result.CustomURL)
			assert.Equal(t, models.ValentineStatusPending, result.Status)
			assert.Equal(t, models.DefaultQuestion, result.Question)
			assert.Zero(t, result.Views)

			row, err := valentineRepo.ByCustomURL(context.Background(), "sarah-and-john")
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, user.ID, row.CreatorID)
		})

		t.Run("CustomURLConflict", func(t *testing.T) {
			req := &dto.CreateValentineRequest{
				Name:      "Jane",
				CustomURL: utils.ToPtr("sarah-and-john"),
			}

			_, err := flow.CreateValentine(context.Background(), user.ID, req, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsSlugTaken(err))

			// The conflicting request must not have created anything
			count, err := valentineRepo.Count(context.Background(), models.ValentineFilter{CustomURL: utils.ToPtr("sarah-and-john")})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("GeneratedURL", func(t *testing.T) {
			req := &dto.CreateValentineRequest{Name: "Jane Doe"}

			result, err := flow.CreateValentine(context.Background(), user.ID, req, testMetadata())
			require.NoError(t, err)
			assert.Regexp(t, `^janedoe-[a-z0-9]{4}$`, result.CustomURL)
		})

		t.Run("EmptySanitizedURLFallsBackToGenerated", func(t *testing.T) {
			req := &dto.CreateValentineRequest{
				Name:      "Jane",
				CustomURL: utils.ToPtr("!!!***"),
			}

			result, err := flow.CreateValentine(context.Background(), user.ID, req, testMetadata())
			require.NoError(t, err)
			assert.Regexp(t, `^jane-[a-z0-9]{4}$`, result.CustomURL)
		})

		t.Run("CustomQuestionKept", func(t *testing.T) {
			req := &dto.CreateValentineRequest{
				Name:     "Amy",
				Question: utils.ToPtr("Dinner on Friday?"),
			}

			result, err := flow.CreateValentine(context.Background(), user.ID, req, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "Dinner on Friday?", result.Question)
		})

		t.Run("NameRequired", func(t *testing.T) {
			req := &dto.CreateValentineRequest{Name: ""}

			_, err := flow.CreateValentine(context.Background(), user.ID, req, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsNameRequired(err))
		})

		t.Run("TooManyImages", func(t *testing.T) {
			req := &dto.CreateValentineRequest{
				Name: "Amy",
				Images: []string{
					"https://cdn.example.com/a.jpg",
					"https://cdn.example.com/b.jpg",
					"https://cdn.example.com/c.jpg",
					"https://cdn.example.com/d.jpg",
				},
			}

			_, err := flow.CreateValentine(context.Background(), user.ID, req, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsTooManyImages(err))
		})

		t.Run("AuditLogWritten", func(t *testing.T) {
			auditRepo := repository.NewAuditLogRepository(testDB.DB)
			logs, err := auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				UserID: &user.ID,
				Action: utils.ToPtr(models.AuditActionValentineCreated),
			}, "", 0, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, logs)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListValentines(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newValentineFlow(testDB, nil)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		other, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		v1, err := fixtures.CreateTestValentine(user.ID, "list-one")
		require.NoError(t, err)
		_, err = fixtures.CreateTestValentine(user.ID, "list-two")
		require.NoError(t, err)
		_, err = fixtures.CreateTestValentine(other.ID, "list-other")
		require.NoError(t, err)

		// Give the first page some views and an accepted status
		require.NoError(t, testDB.DB.Model(&models.Valentine{}).
			Where("id = ?", v1.ID).
			Updates(map[string]any{"views": 7, "status": models.ValentineStatusAccepted}).Error)

		t.Run("OnlyOwnPages", func(t *testing.T) {
			result, err := flow.ListValentines(context.Background(), user.ID, 1, 20)
			require.NoError(t, err)
			require.Len(t, result.Valentines, 2)
			for _, v := range result.Valentines {
				assert.NotEqual(t, "list-other", v.CustomURL)
			}
		})

		t.Run("StatsAggregated", func(t *testing.T) {
			result, err := flow.ListValentines(context.Background(), user.ID, 1, 20)
			require.NoError(t, err)
			assert.Equal(t, int64(2), result.Stats.Total)
			assert.Equal(t, int64(7), result.Stats.TotalViews)
			assert.Equal(t, int64(1), result.Stats.Accepted)
			assert.Equal(t, int64(0), result.Stats.Rejected)
		})

		t.Run("Paging", func(t *testing.T) {
			page1, err := flow.ListValentines(context.Background(), user.ID, 1, 1)
			require.NoError(t, err)
			require.Len(t, page1.Valentines, 1)

			page2, err := flow.ListValentines(context.Background(), user.ID, 2, 1)
			require.NoError(t, err)
			require.Len(t, page2.Valentines, 1)

			assert.NotEqual(t, page1.Valentines[0].UUID, page2.Valentines[0].UUID)
		})

		t.Run("InvalidPage", func(t *testing.T) {
			_, err := flow.ListValentines(context.Background(), user.ID, 0, 20)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPage(err))
		})

		t.Run("InvalidPageSize", func(t *testing.T) {
			_, err := flow.ListValentines(context.Background(), user.ID, 1, 101)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPageSize(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDeleteValentine(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		store := newFakeMediaStore()
		flow := newValentineFlow(testDB, store)
		valentineRepo := repository.NewValentineRepository(testDB.DB)

		owner, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		stranger, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		valentine, err := fixtures.CreateTestValentine(owner.ID, "delete-me")
		require.NoError(t, err)

		t.Run("StrangerGetsNotFound", func(t *testing.T) {
			err := flow.DeleteValentine(context.Background(), stranger.ID, valentine.UUID.String(), testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsValentineNotFound(err))

			// Page must survive the denied attempt
			row, err := valentineRepo.ByUUID(context.Background(), valentine.UUID.String())
			require.NoError(t, err)
			assert.NotNil(t, row)
		})

		t.Run("OwnerDeletes", func(t *testing.T) {
			err := flow.DeleteValentine(context.Background(), owner.ID, valentine.UUID.String(), testMetadata())
			require.NoError(t, err)

			row, err := valentineRepo.ByUUID(context.Background(), valentine.UUID.String())
			require.NoError(t, err)
			assert.Nil(t, row)
		})

		t.Run("MissingPageGetsNotFound", func(t *testing.T) {
			err := flow.DeleteValentine(context.Background(), owner.ID, valentine.UUID.String(), testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsValentineNotFound(err))
		})

		t.Run("MalformedUUIDGetsNotFound", func(t *testing.T) {
			err := flow.DeleteValentine(context.Background(), owner.ID, "not-a-uuid", testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsValentineNotFound(err))
		})

		t.Run("DeleteReleasesHostedImages", func(t *testing.T) {
			keys := []string{
				"valentines/2026/02/first.jpg",
				"valentines/2026/02/second.jpg",
			}
			urls := make(pq.StringArray, 0, len(keys))
			for _, key := range keys {
				store.objects[key] = []byte("image-bytes")
				urls = append(urls, "http://media.test/"+key)
			}
			// One external URL that the media store never hosted
			urls = append(urls, "https://cdn.example.com/external.jpg")

			page, err := fixtures.CreateTestValentine(owner.ID, "with-images")
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(&models.Valentine{}).
				Where("id = ?", page.ID).
				Update("images", urls).Error)

			require.NoError(t, flow.DeleteValentine(context.Background(), owner.ID, page.UUID.String(), testMetadata()))
			assert.Empty(t, store.objects)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestExportValentines(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newValentineFlow(testDB, nil)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		_, err = fixtures.CreateTestValentine(user.ID, "export-one")
		require.NoError(t, err)
		_, err = fixtures.CreateTestValentine(user.ID, "export-two")
		require.NoError(t, err)

		filename, data, err := flow.ExportValentines(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "valentines_export.xlsx", filename)
		assert.NotEmpty(t, data)
		// XLSX files are zip archives
		assert.Equal(t, []byte{'P', 'K'}, data[:2])

		return nil
	})
	require.NoError(t, err)
}
