package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/bemyval/valentine-api/app/dto"
	"github.com/bemyval/valentine-api/app/services"
	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/repository"
	"github.com/bemyval/valentine-api/utils"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// UploadFlow defines operations for image uploads.
type UploadFlow interface {
	UploadImage(ctx context.Context, req *dto.UploadImageRequest, metadata *ClientMetadata) (*dto.UploadImageResponse, error)
}

// UploadFlowImpl implements UploadFlow.
type UploadFlowImpl struct {
	store     services.MediaStore
	auditRepo repository.AuditLogRepository
}

// NewUploadFlow creates a new upload flow instance.
func NewUploadFlow(store services.MediaStore, auditRepo repository.AuditLogRepository) UploadFlow {
	return &UploadFlowImpl{
		store:     store,
		auditRepo: auditRepo,
	}
}

var allowedImageFormats = []string{"jpg", "jpeg", "png", "gif", "webp"}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func (f *UploadFlowImpl) UploadImage(ctx context.Context, req *dto.UploadImageRequest, metadata *ClientMetadata) (*dto.UploadImageResponse, error) {
	if req == nil || req.File == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "file is required", nil)
	}

	if req.FileSize <= 0 {
		return nil, NewBusinessError("INVALID_FILE", "file size is required", nil)
	}
	if req.FileSize > utils.MaxImageUploadBytes {
		return nil, NewBusinessError("FILE_TOO_LARGE", "file size exceeds 5MB", ErrImageTooLarge)
	}

	ext := strings.ToLower(filepath.Ext(req.OriginalFilename))
	if !allowedImageExts[ext] {
		return nil, NewBusinessError("INVALID_FILE_TYPE", fmt.Sprintf("allowed file types: %s", strings.Join(allowedImageFormats, ", ")), ErrUnsupportedImageType)
	}

	data, mimeType, err := readImagePayload(req.File, ext)
	if err != nil {
		errMsg := err.Error()
		_ = f.createAuditLog(ctx, &req.UserID, models.AuditActionImageUploaded, fmt.Sprintf("Image upload failed for user %d: %s", req.UserID, req.OriginalFilename), false, &errMsg, metadata)
		return nil, err
	}

	if ext != ".gif" {
		data, mimeType, ext, err = normalizeImage(data, mimeType, ext)
		if err != nil {
			return nil, err
		}
	}

	key := fmt.Sprintf("valentines/%s/%s%s", utils.UTCNow().Format("2006/01"), uuid.New().String(), ext)
	url, err := f.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mimeType)
	if err != nil {
		errMsg := err.Error()
		_ = f.createAuditLog(ctx, &req.UserID, models.AuditActionImageUploaded, fmt.Sprintf("Image upload failed for user %d: %s", req.UserID, req.OriginalFilename), false, &errMsg, metadata)
		return nil, NewBusinessError("IMAGE_STORE_FAILED", "failed to store image", err)
	}

	_ = f.createAuditLog(ctx, &req.UserID, models.AuditActionImageUploaded, fmt.Sprintf("Image uploaded by user %d: %s", req.UserID, key), true, nil, metadata)

	return &dto.UploadImageResponse{
		Message:          "Image uploaded successfully",
		URL:              url,
		MimeType:         mimeType,
		SizeBytes:        int64(len(data)),
		OriginalFilename: req.OriginalFilename,
		CreatedAt:        utils.UTCNow().Format(time.RFC3339),
	}, nil
}

// readImagePayload buffers the upload, sniffs its content type, and enforces the size cap.
func readImagePayload(reader io.Reader, ext string) ([]byte, string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, "", err
	}
	head = head[:n]

	detected := http.DetectContentType(head)
	if detected != "application/octet-stream" && !strings.HasPrefix(detected, "image/") {
		return nil, "", NewBusinessError("INVALID_FILE_TYPE", "file content is not an image", ErrUnsupportedImageType)
	}
	if detected == "application/octet-stream" {
		if fromExt := mime.TypeByExtension(ext); fromExt != "" {
			detected = fromExt
		}
	}

	fullReader := io.MultiReader(bytes.NewReader(head), reader)
	limited := io.LimitReader(fullReader, utils.MaxImageUploadBytes+1)
	buf := &bytes.Buffer{}
	written, err := io.Copy(buf, limited)
	if err != nil {
		return nil, "", err
	}
	if written > utils.MaxImageUploadBytes {
		return nil, "", NewBusinessError("FILE_TOO_LARGE", "file size exceeds 5MB", ErrImageTooLarge)
	}

	return buf.Bytes(), detected, nil
}

// normalizeImage decodes the payload and downscales oversized images, re-encoding as JPEG.
func normalizeImage(data []byte, mimeType, ext string) ([]byte, string, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", "", NewBusinessError("INVALID_FILE", "failed to decode image", err)
	}

	b := img.Bounds()
	if b.Dx() <= utils.MaxImageDimension && b.Dy() <= utils.MaxImageDimension {
		return data, mimeType, ext, nil
	}

	resized := resizeImage(img, utils.MaxImageDimension)
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", "", err
	}
	return buf.Bytes(), "image/jpeg", ".jpg", nil
}

func resizeImage(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		nh = maxDim
		nw = int(float64(w) * float64(maxDim) / float64(h))
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	imagedraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, imagedraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func (f *UploadFlowImpl) createAuditLog(ctx context.Context, userID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return f.auditRepo.Save(ctx, audit)
}
