// Package stego is the HTTP client for the steganography service that embeds
// a payload string into video bytes (and extracts it back out).
package stego

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/sairammr/TruthCast/internal/common"
)

// EncodedResult is the artifact produced by a successful encode: the
// watermarked MP4 bytes and the filename suggested by the service.
type EncodedResult struct {
	MP4      []byte
	Filename string
}

// ServiceRejectedError reports a non-success response from the service.
// Reason carries the human-readable message from the response body when the
// service provided one. Matches common.ErrServiceRejected via errors.Is.
type ServiceRejectedError struct {
	StatusCode int
	Reason     string
}

func (e *ServiceRejectedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("encoding service rejected request (status %d): %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("encoding service rejected request (status %d)", e.StatusCode)
}

func (e *ServiceRejectedError) Is(target error) bool {
	return target == common.ErrServiceRejected
}

// Client calls the encode/decode endpoints. Neither call is retried here:
// re-encoding would embed the same payload into possibly different encoder
// state, so retries are left to explicit user action.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("User-Agent", "TruthCast/1.0"),
	}
}

type encodeResponse struct {
	MP4         string `json:"mp4"`
	MP4Filename string `json:"mp4_filename"`
}

type decodeResponse struct {
	BorderData string `json:"border_data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Encode embeds payload into media and returns the watermarked artifact.
func (c *Client) Encode(ctx context.Context, media []byte, payload string) (*EncodedResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("video", "video.mp4", bytes.NewReader(media)).
		SetMultipartFormData(map[string]string{"text": payload}).
		Post("/encrypt")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrServiceUnavailable, err)
	}

	if resp.IsError() {
		return nil, &ServiceRejectedError{StatusCode: resp.StatusCode(), Reason: rejectionReason(resp.Body())}
	}

	var body encodeResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
	}
	if body.MP4 == "" {
		return nil, fmt.Errorf("%w: response has no mp4 artifact", common.ErrMalformedResponse)
	}

	raw, err := base64.StdEncoding.DecodeString(body.MP4)
	if err != nil {
		return nil, fmt.Errorf("%w: mp4 field is not base64: %w", common.ErrMalformedResponse, err)
	}

	filename := body.MP4Filename
	if filename == "" {
		filename = "truthcast.mp4"
	}

	return &EncodedResult{MP4: raw, Filename: filename}, nil
}

// Decode extracts the embedded payload string from watermarked media.
func (c *Client) Decode(ctx context.Context, media []byte) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("video", "video.mp4", bytes.NewReader(media)).
		Post("/decrypt")
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrServiceUnavailable, err)
	}

	if resp.IsError() {
		return "", &ServiceRejectedError{StatusCode: resp.StatusCode(), Reason: rejectionReason(resp.Body())}
	}

	var body decodeResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
	}
	if body.BorderData == "" {
		return "", fmt.Errorf("%w: response has no border data", common.ErrMalformedResponse)
	}

	return body.BorderData, nil
}

// rejectionReason pulls the {"error": ...} message out of an error body.
// Returns "" when the body is empty or not in that shape.
func rejectionReason(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error
}
