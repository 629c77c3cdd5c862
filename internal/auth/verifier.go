package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrInvalidToken = errors.New("invalid authentication token")

// UserInfo is the identity attached to a verified Firebase ID token.
type UserInfo struct {
	FirebaseUid string
	Email       string
	DisplayName string
	PhotoUrl    string
	Provider    string
}

type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (UserInfo, error)
}

// IdentityToolkitVerifier validates Firebase ID tokens against the Identity
// Toolkit accounts:lookup endpoint. Lookup both checks the token signature
// server side and returns the account record in one call.
type IdentityToolkitVerifier struct {
	client *resty.Client
	apiKey string
}

func NewIdentityToolkitVerifier(apiKey string) *IdentityToolkitVerifier {
	return &IdentityToolkitVerifier{
		client: resty.New().SetBaseURL("https://identitytoolkit.googleapis.com"),
		apiKey: apiKey,
	}
}

type accountsLookupResponse struct {
	Users []struct {
		LocalId          string `json:"localId"`
		Email            string `json:"email"`
		DisplayName      string `json:"displayName"`
		PhotoUrl         string `json:"photoUrl"`
		ProviderUserInfo []struct {
			ProviderId string `json:"providerId"`
		} `json:"providerUserInfo"`
	} `json:"users"`
}

func (verifier *IdentityToolkitVerifier) VerifyToken(ctx context.Context, idToken string) (UserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := verifier.client.R().
		SetContext(ctx).
		SetQueryParam("key", verifier.apiKey).
		SetBody(map[string]string{"idToken": idToken}).
		Post("/v1/accounts:lookup")

	if err != nil {
		slog.Error("unable to reach identity toolkit", "error", err)
		return UserInfo{}, fmt.Errorf("token verification failed: %w", err)
	}

	if !res.IsSuccess() {
		// Identity Toolkit answers 400 INVALID_ID_TOKEN for bad or expired
		// tokens, so any error status means the caller is unauthenticated.
		slog.Info("identity toolkit rejected token", "status_code", res.StatusCode())
		return UserInfo{}, ErrInvalidToken
	}

	var lookup accountsLookupResponse
	if err := json.Unmarshal(res.Body(), &lookup); err != nil {
		slog.Error("error parsing response from identity toolkit", "error", err)
		return UserInfo{}, fmt.Errorf("error parsing token verification response: %w", err)
	}

	if len(lookup.Users) == 0 {
		return UserInfo{}, ErrInvalidToken
	}

	account := lookup.Users[0]
	info := UserInfo{
		FirebaseUid: account.LocalId,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		PhotoUrl:    account.PhotoUrl,
	}
	if len(account.ProviderUserInfo) > 0 {
		info.Provider = account.ProviderUserInfo[0].ProviderId
	}

	return info, nil
}
