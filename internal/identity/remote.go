package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RemoteVerifier asks the identity provider's user endpoint who owns a token
type RemoteVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRemoteVerifier creates a verifier calling {baseURL}/auth/v1/user
func NewRemoteVerifier(baseURL, apiKey string, client *http.Client) *RemoteVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteVerifier{baseURL: baseURL, apiKey: apiKey, client: client}
}

type remoteUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", v.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var u remoteUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&u); err != nil {
		return nil, fmt.Errorf("failed to decode identity: %w", err)
	}
	if u.ID == "" || u.Email == "" {
		return nil, fmt.Errorf("identity provider returned an incomplete user")
	}

	fullName, _ := u.UserMetadata["full_name"].(string)
	return &Identity{ID: u.ID, Email: u.Email, FullName: fullName, Metadata: u.UserMetadata}, nil
}
