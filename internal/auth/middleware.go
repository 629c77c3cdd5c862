package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"thinkink-backend/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userContextKey struct{}

// UserFromContext returns the authenticated user attached by Middleware.
func UserFromContext(ctx context.Context) (database.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(database.User)
	return user, ok
}

// ContextWithUser is exposed for tests that exercise handlers without the
// full middleware chain.
func ContextWithUser(ctx context.Context, user database.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// Middleware authenticates requests with a Firebase bearer token and loads
// the matching user record. Accounts that verify but have no record yet are
// provisioned on the spot, so clients that skip the login endpoint still
// resolve to a stable user row.
func Middleware(verifier TokenVerifier, db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			info, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, ErrInvalidToken) {
					http.Error(w, "invalid authentication token", http.StatusUnauthorized)
				} else {
					http.Error(w, "authentication error", http.StatusInternalServerError)
				}
				return
			}

			user, err := GetOrCreateUser(r.Context(), db, info)
			if err != nil {
				http.Error(w, "authentication error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func GetOrCreateUser(ctx context.Context, db *gorm.DB, info UserInfo) (database.User, error) {
	var user database.User
	err := db.WithContext(ctx).First(&user, "firebase_uid = ?", info.FirebaseUid).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("error looking up user", "firebase_uid", info.FirebaseUid, "error", err)
		return database.User{}, err
	}

	now := time.Now().UTC()
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

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		slog.Error("error provisioning user", "firebase_uid", info.FirebaseUid, "error", err)
		return database.User{}, err
	}

	slog.Info("provisioned new user", "user_id", user.Id, "provider", user.Provider)
	return user, nil
}
