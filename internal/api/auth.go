package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"thinkink-backend/internal/auth"
	"thinkink-backend/internal/database"
	"thinkink-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthService struct {
	db       *gorm.DB
	verifier auth.TokenVerifier
}

func NewAuthService(db *gorm.DB, verifier auth.TokenVerifier) *AuthService {
	return &AuthService{db: db, verifier: verifier}
}

func (s *AuthService) AddRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", RestHandler(s.Login))
		r.Post("/logout", RestHandler(s.Logout))
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.verifier, s.db))
			r.Get("/me", RestHandler(s.Me))
			r.Put("/profile", RestHandler(s.UpdateProfile))
			r.Delete("/account", RestHandler(s.DeleteAccount))
		})
	})
}

// Login verifies a Firebase ID token and upserts the user record. The token
// is echoed back as the access token since all other endpoints verify it
// directly.
func (s *AuthService) Login(r *http.Request) (any, error) {
	req, err := ParseRequest[api.LoginRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.IdToken) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "id_token is required")
	}

	info, err := s.verifier.VerifyToken(r.Context(), req.IdToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return nil, CodedErrorf(http.StatusUnauthorized, "invalid authentication token")
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "authentication error")
	}

	ctx := r.Context()
	now := time.Now().UTC()

	var user database.User
	err = s.db.WithContext(ctx).First(&user, "firebase_uid = ?", info.FirebaseUid).Error
	switch {
	case err == nil:
		updates := map[string]any{"last_login": now}
		if info.DisplayName != "" {
			updates["display_name"] = info.DisplayName
		}
		if info.PhotoUrl != "" {
			updates["photo_url"] = info.PhotoUrl
		}
		if info.Provider != "" {
			updates["provider"] = info.Provider
		}

		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			slog.Error("error updating user on login", "user_id", user.Id, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "login failed")
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		user = database.User{
			Id:           uuid.New(),
			FirebaseUid:  info.FirebaseUid,
			Email:        info.Email,
			DisplayName:  info.DisplayName,
			PhotoUrl:     info.PhotoUrl,
			Provider:     info.Provider,
			CreationTime: now,
			LastLogin:    now,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			slog.Error("error creating user on login", "firebase_uid", info.FirebaseUid, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "login failed")
		}
		slog.Info("created new user", "user_id", user.Id, "provider", user.Provider)

	default:
		slog.Error("error looking up user on login", "firebase_uid", info.FirebaseUid, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "login failed")
	}

	return api.LoginResponse{
		User:        convertUser(user),
		AccessToken: req.IdToken,
		TokenType:   "bearer",
	}, nil
}

// Logout exists for client symmetry; tokens are invalidated client side.
func (s *AuthService) Logout(r *http.Request) (any, error) {
	return api.MessageResponse{Message: "Logged out successfully"}, nil
}

func (s *AuthService) Me(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}
	return convertUser(user), nil
}

func (s *AuthService) UpdateProfile(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.UpdateProfileRequest](r)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.PhotoUrl != nil {
		updates["photo_url"] = *req.PhotoUrl
	}

	if len(updates) == 0 {
		return convertUser(user), nil
	}

	ctx := r.Context()
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		slog.Error("error updating profile", "user_id", user.Id, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update profile")
	}

	var updated database.User
	if err := s.db.WithContext(ctx).First(&updated, "id = ?", user.Id).Error; err != nil {
		slog.Error("error reloading user after update", "user_id", user.Id, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update profile")
	}

	return convertUser(updated), nil
}

// DeleteAccount removes the user row; history, image, and research records
// go with it through the cascading foreign keys.
func (s *AuthService) DeleteAccount(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(r.Context()).Delete(&database.User{}, "id = ?", user.Id).Error; err != nil {
		slog.Error("error deleting account", "user_id", user.Id, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete account")
	}

	slog.Info("deleted user account", "user_id", user.Id)
	return api.MessageResponse{Message: "Account deleted successfully"}, nil
}
