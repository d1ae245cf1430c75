package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/sairammr/TruthCast/internal/common"
)

const lensScheme = "lens://"

// GroveUploader stores content in a Grove-style content-addressed network.
// Returned URIs use the lens:// scheme and have to be resolved through the
// gateway for HTTP playback.
type GroveUploader struct {
	http    *resty.Client
	gateway string
}

func NewGroveUploader(apiURL, gatewayURL string) *GroveUploader {
	return &GroveUploader{
		http: resty.New().
			SetBaseURL(apiURL).
			SetHeader("User-Agent", "TruthCast/1.0"),
		gateway: strings.TrimRight(gatewayURL, "/"),
	}
}

type groveUploadResponse struct {
	URI string `json:"uri"`
}

// groveACL is the serialized form of an account-only access policy.
type groveACL struct {
	Template    string `json:"template"`
	LensAccount string `json:"lens_account"`
	ChainID     uint64 `json:"chain_id"`
}

func (g *GroveUploader) UploadBinary(ctx context.Context, data []byte, filename string, policy *AccessPolicy) (string, error) {
	req := g.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(data))

	if policy != nil {
		acl, err := json.Marshal(groveACL{
			Template:    "lens_account",
			LensAccount: policy.Account,
			ChainID:     policy.ChainID,
		})
		if err != nil {
			return "", fmt.Errorf("%w: marshal acl: %w", common.ErrUploadFailed, err)
		}
		req.SetMultipartField("lens-acl", "acl.json", "application/json", bytes.NewReader(acl))
	}

	resp, err := req.Post("/")
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUploadFailed, err)
	}
	return groveURI(resp)
}

func (g *GroveUploader) UploadJSON(ctx context.Context, doc any) (string, error) {
	resp, err := g.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(doc).
		Post("/")
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUploadFailed, err)
	}
	return groveURI(resp)
}

// ResolveURI turns a lens:// URI into a gateway URL. HTTP(S) URLs pass
// through unchanged.
func (g *GroveUploader) ResolveURI(uri string) (string, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri, nil
	}
	key, ok := strings.CutPrefix(uri, lensScheme)
	if !ok || key == "" {
		return "", fmt.Errorf("unresolvable storage uri %q", uri)
	}
	return g.gateway + "/" + key, nil
}

func groveURI(resp *resty.Response) (string, error) {
	if resp.IsError() {
		return "", fmt.Errorf("%w: status %d: %s", common.ErrUploadFailed, resp.StatusCode(), resp.String())
	}

	var body groveUploadResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUploadFailed, err)
	}
	if body.URI == "" {
		return "", fmt.Errorf("%w: response has no uri", common.ErrUploadFailed)
	}
	return body.URI, nil
}
