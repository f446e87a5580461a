package dto

type LoginRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=30,username"`
	Password     string `json:"password" validate:"required,min=6,max=128"`
	CaptchaToken string `json:"captcha_token" validate:"required,min=10"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	Admin        AdminResponse `json:"admin"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type AdminResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GenerateAPIKeyRequest names a new key. ExpiresInDays defaults to 30.
type GenerateAPIKeyRequest struct {
	KeyName       string `json:"key_name" validate:"required,min=3,max=100"`
	ExpiresInDays int    `json:"expires_in_days" validate:"omitempty,min=1,max=3650"`
}

type APIKeyResponse struct {
	APIKey       string `json:"api_key"`
	KeyName      string `json:"key_name"`
	CreatedAt    string `json:"created_at"`
	ExpiresAt    string `json:"expires_at"`
	Instructions string `json:"instructions"`
}
