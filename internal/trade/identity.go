package trade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// offlineIDMinLength is the minimum playerId length accepted when the
// service runs in offline mode.
const offlineIDMinLength = 32

// identityVerifyTimeout is the hard timeout for the online identity check:
// no retry, since identity checks sit on the latency-sensitive trade path.
const identityVerifyTimeout = 3 * time.Second

// IdentityVerifier checks that a player identity is legitimate before a
// trade is priced. The concrete identity service is out of scope; this
// package only defines the contract and an HTTP adapter against it.
type IdentityVerifier interface {
	Verify(ctx context.Context, playerID, playerName string) (bool, error)
}

// OfflineVerifier accepts any playerId at least offlineIDMinLength long,
// used when config.IsOnlineMode is false.
type OfflineVerifier struct{}

func (OfflineVerifier) Verify(_ context.Context, playerID, _ string) (bool, error) {
	return len(playerID) >= offlineIDMinLength, nil
}

// HTTPIdentityVerifier posts to a configured external profile service. A
// non-OK response or a timeout is a verification failure, never an error
// that escapes to the caller as a 500.
type HTTPIdentityVerifier struct {
	URL    string
	Client *http.Client
}

// NewHTTPIdentityVerifier builds a verifier whose client timeout matches the
// spec's 3s cap, so the context deadline and the transport deadline agree.
func NewHTTPIdentityVerifier(url string) *HTTPIdentityVerifier {
	return &HTTPIdentityVerifier{
		URL:    url,
		Client: &http.Client{Timeout: identityVerifyTimeout},
	}
}

type identityCheckRequest struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type identityCheckResponse struct {
	Valid bool `json:"valid"`
}

// Verify posts {playerId, playerName} and expects {"valid": bool}.
func (v *HTTPIdentityVerifier) Verify(ctx context.Context, playerID, playerName string) (bool, error) {
	if v.URL == "" {
		return false, fmt.Errorf("identity verifier URL not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, identityVerifyTimeout)
	defer cancel()

	body, err := json.Marshal(identityCheckRequest{PlayerID: playerID, PlayerName: playerName})
	if err != nil {
		return false, fmt.Errorf("encode identity request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.URL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("identity check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var parsed identityCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("decode identity response: %w", err)
	}
	return parsed.Valid, nil
}
