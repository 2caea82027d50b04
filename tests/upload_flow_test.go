package tests

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
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

// fakeMediaStore records uploads in memory
type fakeMediaStore struct {
	objects map[string][]byte
	lastKey string
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{objects: make(map[string][]byte)}
}

func (s *fakeMediaStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	s.lastKey = key
	return "http://media.test/" + key, nil
}

func (s *fakeMediaStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 200, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		store := newFakeMediaStore()
		flow := businessflow.NewUploadFlow(store, auditRepo)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("SuccessfulUpload", func(t *testing.T) {
			data := pngBytes(t, 100, 80)
			req := &dto.UploadImageRequest{
				UserID:           user.ID,
				OriginalFilename: "photo.png",
				FileSize:         int64(len(data)),
				ContentType:      "image/png",
				File:             bytes.NewReader(data),
			}

			result, err := flow.UploadImage(context.Background(), req, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Contains(t, result.URL, "http://media.test/valentines/")
			assert.Equal(t, "image/png", result.MimeType)
			assert.Equal(t, "photo.png", result.OriginalFilename)
			assert.Len(t, store.objects, 1)

			// Audit trail records the upload
			logs, err := auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				UserID: &user.ID,
				Action: utils.ToPtr(models.AuditActionImageUploaded),
			}, "", 0, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, logs)
		})

		t.Run("OversizedImageDownscaled", func(t *testing.T) {
			data := pngBytes(t, utils.MaxImageDimension+400, 600)
			req := &dto.UploadImageRequest{
				UserID:           user.ID,
				OriginalFilename: "wide.png",
				FileSize:         int64(len(data)),
				ContentType:      "image/png",
				File:             bytes.NewReader(data),
			}

			result, err := flow.UploadImage(context.Background(), req, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "image/jpeg", result.MimeType)

			stored := store.objects[store.lastKey]
			img, _, err := image.Decode(bytes.NewReader(stored))
			require.NoError(t, err)
			assert.LessOrEqual(t, img.Bounds().Dx(), utils.MaxImageDimension)
			assert.LessOrEqual(t, img.Bounds().Dy(), utils.MaxImageDimension)
		})

		t.Run("UnsupportedExtension", func(t *testing.T) {
			data := pngBytes(t, 10, 10)
			req := &dto.UploadImageRequest{
				UserID:           user.ID,
				OriginalFilename: "notes.txt",
				FileSize:         int64(len(data)),
				File:             bytes.NewReader(data),
			}

			_, err := flow.UploadImage(context.Background(), req, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsUnsupportedImageType(err))
		})

		t.Run("NonImagePayloadRejected", func(t *testing.T) {
			data := []byte("<html><body>hello</body></html>")
			req := &dto.UploadImageRequest{
				UserID:           user.ID,
				OriginalFilename: "fake.png",
				FileSize:         int64(len(data)),
				File:             bytes.NewReader(data),
			}

			_, err := flow.UploadImage(context.Background(), req, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsUnsupportedImageType(err))
		})

		t.Run("DeclaredSizeTooLarge", func(t *testing.T) {
			req := &dto.UploadImageRequest{
				UserID:           user.ID,
				OriginalFilename: "huge.jpg",
				FileSize:         utils.MaxImageUploadBytes + 1,
				File:             bytes.NewReader(pngBytes(t, 10, 10)),
			}

			_, err := flow.UploadImage(context.Background(), req, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsImageTooLarge(err))
		})

		t.Run("MissingFile", func(t *testing.T) {
			req := &dto.UploadImageRequest{
				UserID:           user.ID,
				OriginalFilename: "photo.png",
				FileSize:         100,
			}

			_, err := flow.UploadImage(context.Background(), req, testMetadata())
			require.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}
