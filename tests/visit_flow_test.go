package tests

import (
	"context"
	"testing"

	"github.com/bemyval/valentine-api/app/dto"
	businessflow "github.com/bemyval/valentine-api/business_flow"
	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/repository"
	testingutil "github.com/bemyval/valentine-api/testing"
	"github.com/bemyval/valentine-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVisitFlow(testDB *testingutil.TestDB) businessflow.VisitFlow {
	valentineRepo := repository.NewValentineRepository(testDB.DB)
	responseRepo := repository.NewValentineResponseRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	return businessflow.NewVisitFlow(valentineRepo, responseRepo, auditRepo, testDB.DB)
}

func TestVisit(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newVisitFlow(testDB)
		valentineRepo := repository.NewValentineRepository(testDB.DB)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		valentine, err := fixtures.CreateTestValentine(user.ID, "visit-me")
		require.NoError(t, err)

		t.Run("ReturnsPageAndCountsView", func(t *testing.T) {
			result, err := flow.Visit(context.Background(), "visit-me")
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, "visit-me", result.CustomURL)
			assert.Equal(t, "Jane", result.Name)
			assert.Equal(t, int64(1), result.Views)

			row, err := valentineRepo.ByCustomURL(context.Background(), "visit-me")
			require.NoError(t, err)
			assert.Equal(t, int64(1), row.Views)
		})

		t.Run("ViewsAreMonotonic", func(t *testing.T) {
			for i := 0; i < 5; i++ {
				_, err := flow.Visit(context.Background(), "visit-me")
				require.NoError(t, err)
			}

			row, err := valentineRepo.ByCustomURL(context.Background(), "visit-me")
			require.NoError(t, err)
			assert.Equal(t, int64(6), row.Views)
		})

		t.Run("UnknownURLNotFound", func(t *testing.T) {
			_, err := flow.Visit(context.Background(), "no-such-page")
			require.Error(t, err)
			assert.True(t, businessflow.IsValentineNotFound(err))
		})

		t.Run("CreatorDataNotExposed", func(t *testing.T) {
			result, err := flow.Visit(context.Background(), "visit-me")
			require.NoError(t, err)

			// The public view carries no creator or phone fields at all;
			// double-check the page still belongs to its creator internally
			row, err := valentineRepo.ByCustomURL(context.Background(), "visit-me")
			require.NoError(t, err)
			assert.Equal(t, valentine.CreatorID, row.CreatorID)
			assert.Equal(t, row.Name, result.Name)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSubmitResponse(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newVisitFlow(testDB)
		valentineRepo := repository.NewValentineRepository(testDB.DB)
		responseRepo := repository.NewValentineResponseRepository(testDB.DB)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		valentine, err := fixtures.CreateTestValentine(user.ID, "answer-me")
		require.NoError(t, err)

		t.Run("AcceptMovesStatus", func(t *testing.T) {
			req := &dto.SubmitResponseRequest{Response: models.ValentineStatusAccepted}

			result, err := flow.SubmitResponse(context.Background(), "answer-me", req, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.ValentineStatusAccepted, result.Status)

			row, err := valentineRepo.ByCustomURL(context.Background(), "answer-me")
			require.NoError(t, err)
			assert.Equal(t, models.ValentineStatusAccepted, row.Status)

			responses, err := responseRepo.ListByValentine(context.Background(), valentine.ID, 0, 0)
			require.NoError(t, err)
			require.Len(t, responses, 1)
			assert.Equal(t, models.ValentineStatusAccepted, responses[0].Response)
		})

		t.Run("ResubmissionAppendsAndOverwritesStatus", func(t *testing.T) {
			req := &dto.SubmitResponseRequest{Response: models.ValentineStatusRejected}

			result, err := flow.SubmitResponse(context.Background(), "answer-me", req, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.ValentineStatusRejected, result.Status)

			// Every answer is kept, the status reflects the latest
			responses, err := responseRepo.ListByValentine(context.Background(), valentine.ID, 0, 0)
			require.NoError(t, err)
			require.Len(t, responses, 2)
			assert.Equal(t, models.ValentineStatusAccepted, responses[0].Response)
			assert.Equal(t, models.ValentineStatusRejected, responses[1].Response)

			row, err := valentineRepo.ByCustomURL(context.Background(), "answer-me")
			require.NoError(t, err)
			assert.Equal(t, models.ValentineStatusRejected, row.Status)
		})

		t.Run("InvalidResponseRejected", func(t *testing.T) {
			req := &dto.SubmitResponseRequest{Response: "maybe"}

			_, err := flow.SubmitResponse(context.Background(), "answer-me", req, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidResponseKind(err))

			// Nothing may be appended on a rejected submission
			responses, err := responseRepo.ListByValentine(context.Background(), valentine.ID, 0, 0)
			require.NoError(t, err)
			assert.Len(t, responses, 2)
		})

		t.Run("UnknownURLNotFound", func(t *testing.T) {
			req := &dto.SubmitResponseRequest{Response: models.ValentineStatusAccepted}

			_, err := flow.SubmitResponse(context.Background(), "no-such-page", req, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsValentineNotFound(err))
		})

		t.Run("SubmissionDoesNotCountAsView", func(t *testing.T) {
			before, err := valentineRepo.ByCustomURL(context.Background(), "answer-me")
			require.NoError(t, err)

			req := &dto.SubmitResponseRequest{Response: models.ValentineStatusAccepted}
			_, err = flow.SubmitResponse(context.Background(), "answer-me", req, testMetadata())
			require.NoError(t, err)

			after, err := valentineRepo.ByCustomURL(context.Background(), "answer-me")
			require.NoError(t, err)
			assert.Equal(t, before.Views, after.Views)
		})

		t.Run("AuditLogWritten", func(t *testing.T) {
			auditRepo := repository.NewAuditLogRepository(testDB.DB)
			logs, err := auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				Action: utils.ToPtr(models.AuditActionValentineResponseSubmitted),
			}, "", 0, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, logs)
		})

		return nil
	})
	require.NoError(t, err)
}
