package simplefin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesfulford/cashflow-projector/internal/common"
)

// AuthState is the saved result of claiming a setup token.
type AuthState struct {
	ClaimedAt  time.Time `json:"claimed_at"`
	AccessURL  string    `json:"access_url"`
	ClaimToken string    `json:"claim_token_hint"`
}

// LoadOrClaimAuth returns the access URL saved in stateFile, claiming token
// and saving the result when there is none. A setup token can be claimed
// only once.
func LoadOrClaimAuth(ctx context.Context, httpClient *http.Client, token, stateFile string) (*AuthState, error) {
	auth, err := loadAuthState(stateFile)
	if err == nil && auth.AccessURL != "" {
		slog.Debug("Using saved SimpleFIN access URL",
			"claimed_at", auth.ClaimedAt.Format(time.DateOnly),
			"state_file", stateFile)
		return auth, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read SimpleFIN state: %w", err)
	}

	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: SimpleFIN setup token (simplefin.token or SIMPLEFIN_TOKEN)", common.ErrMissingConfig)
	}

	slog.Info("Claiming SimpleFIN setup token")
	accessURL, err := ClaimAccessURL(ctx, httpClient, token)
	if err != nil {
		return nil, err
	}

	auth = &AuthState{
		AccessURL:  accessURL,
		ClaimedAt:  time.Now().UTC(),
		ClaimToken: tokenHint(token),
	}
	if err := saveAuthState(stateFile, auth); err != nil {
		return nil, fmt.Errorf("failed to save SimpleFIN state: %w", err)
	}

	slog.Info("Saved SimpleFIN access URL", "state_file", stateFile)
	return auth, nil
}

// ClaimAccessURL exchanges a base64 setup token for an access URL.
func ClaimAccessURL(ctx context.Context, httpClient *http.Client, token string) (string, error) {
	claimURL, err := decodeToken(token)
	if err != nil {
		return "", err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claimURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create claim request: %w", err)
	}
	req.Header.Set("Content-Length", "0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to claim access URL: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return "", fmt.Errorf("failed to claim access URL: %w", err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read access URL: %w", err)
	}

	accessURL := strings.TrimSpace(string(body))
	if !isHTTPURL(accessURL) {
		return "", fmt.Errorf("%w: claim returned no access URL", common.ErrInvalidConfig)
	}
	return accessURL, nil
}

func decodeToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(token)
	}
	if err != nil {
		return "", fmt.Errorf("%w: SimpleFIN setup token is not base64", common.ErrInvalidConfig)
	}

	claimURL := strings.TrimSpace(string(decoded))
	if !isHTTPURL(claimURL) {
		return "", fmt.Errorf("%w: SimpleFIN setup token does not hold a URL", common.ErrInvalidConfig)
	}
	return claimURL, nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

func loadAuthState(path string) (*AuthState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var auth AuthState
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func saveAuthState(path string, auth *AuthState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(auth, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// tokenHint keeps enough of a token to recognize it later.
func tokenHint(token string) string {
	if len(token) > 16 {
		return token[:8] + "..." + token[len(token)-8:]
	}
	return "short_token"
}
