// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/repository"
	testingutil "github.com/bemyval/valentine-api/testing"
	"github.com/bemyval/valentine-api/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		userRepo := repository.NewUserRepository(testDB.DB)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("ByEmail", func(t *testing.T) {
			found, err := userRepo.ByEmail(context.Background(), user.Email)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, user.ID, found.ID)
		})

		t.Run("ByEmailMissing", func(t *testing.T) {
			found, err := userRepo.ByEmail(context.Background(), "missing@example.com")
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("UpdateLastLogin", func(t *testing.T) {
			require.NoError(t, userRepo.UpdateLastLogin(context.Background(), user.ID))

			refreshed, err := userRepo.ByID(context.Background(), user.ID)
			require.NoError(t, err)
			require.NotNil(t, refreshed.LastLoginAt)
		})

		t.Run("DuplicateEmailRejectedByIndex", func(t *testing.T) {
			dup := &models.User{
				UUID:         uuid.New(),
				FirstName:    "Copy",
				LastName:     "Cat",
				Email:        user.Email,
				PasswordHash: "x",
				IsActive:     utils.ToPtr(true),
			}
			err := userRepo.Save(context.Background(), dup)
			require.Error(t, err)
			assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestValentineRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		valentineRepo := repository.NewValentineRepository(testDB.DB)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		valentine, err := fixtures.CreateTestValentine(user.ID, "repo-page")
		require.NoError(t, err)

		t.Run("ByCustomURL", func(t *testing.T) {
			found, err := valentineRepo.ByCustomURL(context.Background(), "repo-page")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, valentine.ID, found.ID)

			missing, err := valentineRepo.ByCustomURL(context.Background(), "nope")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("ExistsByCustomURL", func(t *testing.T) {
			taken, err := valentineRepo.ExistsByCustomURL(context.Background(), "repo-page")
			require.NoError(t, err)
			assert.True(t, taken)

			free, err := valentineRepo.ExistsByCustomURL(context.Background(), "free-slug")
			require.NoError(t, err)
			assert.False(t, free)
		})

		t.Run("UniqueIndexOnCustomURL", func(t *testing.T) {
			dup := &models.Valentine{
				UUID:      uuid.New(),
				CreatorID: user.ID,
				CustomURL: "repo-page",
				Name:      "Dup",
				Question:  models.DefaultQuestion,
				Status:    models.ValentineStatusPending,
			}
			err := valentineRepo.Save(context.Background(), dup)
			require.Error(t, err)
			assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
		})

		t.Run("IncrementViews", func(t *testing.T) {
			for i := 0; i < 3; i++ {
				require.NoError(t, valentineRepo.IncrementViews(context.Background(), valentine.ID))
			}

			found, err := valentineRepo.ByCustomURL(context.Background(), "repo-page")
			require.NoError(t, err)
			assert.Equal(t, int64(3), found.Views)
		})

		t.Run("IncrementViewsMissingRow", func(t *testing.T) {
			err := valentineRepo.IncrementViews(context.Background(), 999999)
			require.Error(t, err)
		})

		t.Run("UpdateStatus", func(t *testing.T) {
			require.NoError(t, valentineRepo.UpdateStatus(context.Background(), valentine.ID, models.ValentineStatusAccepted))

			found, err := valentineRepo.ByCustomURL(context.Background(), "repo-page")
			require.NoError(t, err)
			assert.Equal(t, models.ValentineStatusAccepted, found.Status)
		})

		t.Run("StatsByCreator", func(t *testing.T) {
			stats, err := valentineRepo.StatsByCreator(context.Background(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), stats.Total)
			assert.Equal(t, int64(3), stats.TotalViews)
			assert.Equal(t, int64(1), stats.Accepted)
			assert.Equal(t, int64(0), stats.Rejected)
		})

		t.Run("StatsForEmptyCreator", func(t *testing.T) {
			other, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			stats, err := valentineRepo.StatsByCreator(context.Background(), other.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), stats.Total)
			assert.Equal(t, int64(0), stats.TotalViews)
		})

		t.Run("DeleteByUUIDAndCreator", func(t *testing.T) {
			// Wrong creator deletes nothing
			deleted, err := valentineRepo.DeleteByUUIDAndCreator(context.Background(), valentine.UUID.String(), user.ID+100)
			require.NoError(t, err)
			assert.Nil(t, deleted)

			// Right creator gets the deleted row back
			deleted, err = valentineRepo.DeleteByUUIDAndCreator(context.Background(), valentine.UUID.String(), user.ID)
			require.NoError(t, err)
			require.NotNil(t, deleted)
			assert.Equal(t, valentine.ID, deleted.ID)

			// Second delete finds nothing
			deleted, err = valentineRepo.DeleteByUUIDAndCreator(context.Background(), valentine.UUID.String(), user.ID)
			require.NoError(t, err)
			assert.Nil(t, deleted)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestConcurrentViewCounting(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		valentineRepo := repository.NewValentineRepository(testDB.DB)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		valentine, err := fixtures.CreateTestValentine(user.ID, "busy-page")
		require.NoError(t, err)

		const visitors = 25
		errs := make(chan error, visitors)

		var wg sync.WaitGroup
		for i := 0; i < visitors; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- valentineRepo.IncrementViews(context.Background(), valentine.ID)
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		found, err := valentineRepo.ByCustomURL(context.Background(), "busy-page")
		require.NoError(t, err)
		assert.Equal(t, int64(visitors), found.Views)

		return nil
	})
	require.NoError(t, err)
}

func TestValentineResponseRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		responseRepo := repository.NewValentineResponseRepository(testDB.DB)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		valentine, err := fixtures.CreateTestValentine(user.ID, "responses-page")
		require.NoError(t, err)

		answers := []string{
			models.ValentineStatusAccepted,
			models.ValentineStatusRejected,
			models.ValentineStatusAccepted,
		}
		for i, answer := range answers {
			response := &models.ValentineResponse{
				ValentineID: valentine.ID,
				Response:    answer,
				RespondedAt: utils.UTCNow().Add(time.Duration(i) * time.Second),
			}
			require.NoError(t, responseRepo.Save(context.Background(), response))
		}

		t.Run("ListByValentineKeepsOrder", func(t *testing.T) {
			responses, err := responseRepo.ListByValentine(context.Background(), valentine.ID, 0, 0)
			require.NoError(t, err)
			require.Len(t, responses, 3)
			for i, answer := range answers {
				assert.Equal(t, answer, responses[i].Response)
			}
		})

		t.Run("CountByKind", func(t *testing.T) {
			accepted, err := responseRepo.Count(context.Background(), models.ValentineResponseFilter{
				ValentineID: &valentine.ID,
				Response:    utils.ToPtr(models.ValentineStatusAccepted),
			})
			require.NoError(t, err)
			assert.Equal(t, int64(2), accepted)
		})

		t.Run("EqualTimestampsKeepInsertOrder", func(t *testing.T) {
			page, err := fixtures.CreateTestValentine(user.ID, "tied-answers")
			require.NoError(t, err)

			// All answers share one timestamp; insert order must still win
			at := utils.UTCNow()
			ordered := []string{
				models.ValentineStatusRejected,
				models.ValentineStatusAccepted,
				models.ValentineStatusRejected,
				models.ValentineStatusAccepted,
			}
			for _, answer := range ordered {
				response := &models.ValentineResponse{
					ValentineID: page.ID,
					Response:    answer,
					RespondedAt: at,
				}
				require.NoError(t, responseRepo.Save(context.Background(), response))
			}

			responses, err := responseRepo.ListByValentine(context.Background(), page.ID, 0, 0)
			require.NoError(t, err)
			require.Len(t, responses, len(ordered))
			for i, answer := range ordered {
				assert.Equal(t, answer, responses[i].Response)
			}
		})

		t.Run("DeletingPageCascades", func(t *testing.T) {
			require.NoError(t, testDB.DB.Where("id = ?", valentine.ID).Delete(&models.Valentine{}).Error)

			responses, err := responseRepo.ListByValentine(context.Background(), valentine.ID, 0, 0)
			require.NoError(t, err)
			assert.Empty(t, responses)
		})

		return nil
	})
	require.NoError(t, err)
}
