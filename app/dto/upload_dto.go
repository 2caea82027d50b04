package dto

import "io"

// UploadImageRequest contains upload details passed from handler to flow.
type UploadImageRequest struct {
	UserID           uint      `json:"-"`
	OriginalFilename string    `json:"-"`
	FileSize         int64     `json:"-"`
	ContentType      string    `json:"-"`
	File             io.Reader `json:"-"`
}

// UploadImageResponse represents a successful image upload response.
type UploadImageResponse struct {
	Message          string `json:"message"`
	URL              string `json:"url"`
	MimeType         string `json:"mime_type"`
	SizeBytes        int64  `json:"size_bytes"`
	OriginalFilename string `json:"original_filename"`
	CreatedAt        string `json:"created_at"`
}
