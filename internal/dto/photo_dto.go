package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
)

type PhotoResponse struct {
	ID           string     `json:"id"`
	Filename     string     `json:"filename"`
	OriginalName string     `json:"original_name"`
	URL          string     `json:"url"`
	Size         int64      `json:"size"`
	Likes        int        `json:"likes"`
	ReportCount  int        `json:"report_count"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
}

type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	HasMore  bool  `json:"has_more"`
}

type PhotoListResponse struct {
	Photos     []PhotoResponse `json:"photos"`
	Pagination Pagination      `json:"pagination"`
}

type UploadResponse struct {
	Message string        `json:"message"`
	Photo   PhotoResponse `json:"photo"`
}

type LikeRequest struct {
	CaptchaToken string `json:"captcha_token" validate:"omitempty,min=10"`
}

type LikeResponse struct {
	Action string `json:"action"`
	Likes  int    `json:"likes"`
}

type ReportRequest struct {
	Reason       string `json:"reason" validate:"required,report_reason"`
	Details      string `json:"details" validate:"max=500"`
	CaptchaToken string `json:"captcha_token" validate:"omitempty,min=10"`
}

type ReportResponse struct {
	Message     string `json:"message"`
	ReportCount int    `json:"report_count"`
}

type ImageCheckResponse struct {
	Filename string `json:"filename"`
	Exists   bool   `json:"exists"`
}

// NewPhotoResponse converts a model, resolving its public URL with urlFor.
func NewPhotoResponse(p *models.Photo, urlFor func(string) string) PhotoResponse {
	return PhotoResponse{
		ID:           p.ID,
		Filename:     p.Filename,
		OriginalName: p.OriginalName,
		URL:          urlFor(p.Filename),
		Size:         p.Size,
		Likes:        p.Likes,
		ReportCount:  p.ReportCount,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		ApprovedAt:   p.ApprovedAt,
	}
}

func NewPhotoResponses(photos []models.Photo, urlFor func(string) string) []PhotoResponse {
	out := make([]PhotoResponse, 0, len(photos))
	for i := range photos {
		out = append(out, NewPhotoResponse(&photos[i], urlFor))
	}
	return out
}
