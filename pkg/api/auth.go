package api

import (
	"time"

	"github.com/google/uuid"
)

type LoginRequest struct {
	IdToken string `json:"id_token"`
}

type UserProfile struct {
	Id          uuid.UUID `json:"id"`
	FirebaseUid string    `json:"firebase_uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	PhotoUrl    string    `json:"photo_url,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastLogin   time.Time `json:"last_login"`
}

type LoginResponse struct {
	User        UserProfile `json:"user"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	PhotoUrl    *string `json:"photo_url,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
