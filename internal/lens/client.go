// Package lens is the client for the publication API: session bootstrap
// (challenge signing, token refresh) and posting content that references an
// uploaded metadata URI.
package lens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"

	"github.com/sairammr/TruthCast/internal/common"
	"github.com/sairammr/TruthCast/internal/logging"
)

// ChallengeSigner signs the authentication challenge with the account owner's
// wallet key. chain.Signer satisfies it.
type ChallengeSigner interface {
	Address() ethcommon.Address
	SignText(msg []byte) ([]byte, error)
}

// Client talks to the publication API.
type Client struct {
	http    *resty.Client
	store   SessionStore
	signer  ChallengeSigner
	app     string
	account string
	log     logging.Logger
}

// NewClient builds a Client. app and account are the application address and
// the publication account address used during authentication (the account is
// distinct from the owner wallet address).
func NewClient(baseURL string, store SessionStore, signer ChallengeSigner, app, account string, log logging.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("User-Agent", "TruthCast/1.0"),
		store:   store,
		signer:  signer,
		app:     app,
		account: account,
		log:     log,
	}
}

type challengeRequest struct {
	App     string `json:"app"`
	Owner   string `json:"owner"`
	Account string `json:"account"`
}

type challengeResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type authenticateRequest struct {
	ID        string `json:"id"`
	Signature string `json:"signature"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type postRequest struct {
	ContentURI string `json:"contentUri"`
}

type postResponse struct {
	Hash string `json:"hash"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// EnsureSession returns a usable session: a cached one when its access token
// is still fresh, a refreshed one when only the refresh token survives, or a
// brand new one established by signing a challenge.
func (c *Client) EnsureSession(ctx context.Context) (*Session, error) {
	cached, err := c.store.Load(ctx)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		c.log.Warn(ctx, "session cache unreadable, re-authenticating", "err", err)
	}

	if cached != nil && tokenUsable(cached.AccessToken) {
		return cached, nil
	}

	if cached != nil && cached.RefreshToken != "" {
		if s, err := c.refresh(ctx, cached); err == nil {
			return s, nil
		} else {
			c.log.Warn(ctx, "session refresh failed, re-authenticating", "err", err)
		}
	}

	return c.authenticate(ctx)
}

func (c *Client) refresh(ctx context.Context, cached *Session) (*Session, error) {
	var tokens tokensResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(refreshRequest{RefreshToken: cached.RefreshToken}).
		SetResult(&tokens).
		Post("/authentication/refresh")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrServiceUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: refresh rejected: %s", common.ErrSessionExpired, reason(resp))
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh response has no access token", common.ErrMalformedResponse)
	}

	s := &Session{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, Account: cached.Account}
	c.saveSession(ctx, s)
	return s, nil
}

func (c *Client) authenticate(ctx context.Context) (*Session, error) {
	if c.signer == nil {
		return nil, common.ErrSignerUnavailable
	}

	var challenge challengeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(challengeRequest{
			App:     c.app,
			Owner:   c.signer.Address().Hex(),
			Account: c.account,
		}).
		SetResult(&challenge).
		Post("/authentication/challenge")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrServiceUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: challenge rejected: %s", common.ErrSessionExpired, reason(resp))
	}
	if challenge.ID == "" || challenge.Text == "" {
		return nil, fmt.Errorf("%w: incomplete challenge", common.ErrMalformedResponse)
	}

	sig, err := c.signer.SignText([]byte(challenge.Text))
	if err != nil {
		return nil, fmt.Errorf("sign challenge: %w", err)
	}

	var tokens tokensResponse
	resp, err = c.http.R().
		SetContext(ctx).
		SetBody(authenticateRequest{ID: challenge.ID, Signature: hexutil.Encode(sig)}).
		SetResult(&tokens).
		Post("/authentication/authenticate")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrServiceUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: authentication rejected: %s", common.ErrSessionExpired, reason(resp))
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("%w: authenticate response has no access token", common.ErrMalformedResponse)
	}

	s := &Session{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, Account: c.account}
	c.saveSession(ctx, s)
	return s, nil
}

// saveSession failures are logged, not returned: a session that cannot be
// cached is still a valid session for this run.
func (c *Client) saveSession(ctx context.Context, s *Session) {
	if err := c.store.Save(ctx, s); err != nil {
		c.log.Warn(ctx, "session cache write failed", "err", err)
	}
}

// Post publishes content referencing the given metadata URI and returns the
// content id assigned by the service.
func (c *Client) Post(ctx context.Context, session *Session, contentURI string) (string, error) {
	var body postResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(session.AccessToken).
		SetBody(postRequest{ContentURI: contentURI}).
		SetResult(&body).
		Post("/posts")
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrServiceUnavailable, err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		return "", fmt.Errorf("%w: %s", common.ErrSessionExpired, reason(resp))
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: %s", common.ErrPostRejected, reason(resp))
	}
	if body.Hash == "" {
		return "", fmt.Errorf("%w: post response has no hash", common.ErrMalformedResponse)
	}

	return body.Hash, nil
}

// reason extracts {"error": ...} from an error response, falling back to the
// HTTP status text.
func reason(resp *resty.Response) string {
	var e errorResponse
	if err := json.Unmarshal(resp.Body(), &e); err == nil && e.Error != "" {
		return e.Error
	}
	return http.StatusText(resp.StatusCode())
}
