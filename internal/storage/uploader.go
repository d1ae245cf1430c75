// Package storage uploads binary blobs and JSON documents to a
// content-addressed storage network and hands back stable URIs.
//
// Two backends exist: Grove (lens:// URIs, the default) and an
// S3-compatible store for self-hosted deployments.
package storage

import "context"

// AccessPolicy restricts read access to a named account. A nil policy means
// the object is publicly readable.
type AccessPolicy struct {
	// Account is the address allowed to read the object.
	Account string
	// ChainID scopes the account to a chain.
	ChainID uint64
}

// Uploader stores content and returns a stable URI for it.
// All transport and backend failures are reported as common.ErrUploadFailed.
type Uploader interface {
	// UploadBinary stores raw bytes under the suggested filename.
	UploadBinary(ctx context.Context, data []byte, filename string, policy *AccessPolicy) (string, error)
	// UploadJSON stores the JSON serialization of doc.
	UploadJSON(ctx context.Context, doc any) (string, error)
}

// Resolver translates a storage URI into an HTTP-fetchable URL for playback.
type Resolver interface {
	ResolveURI(uri string) (string, error)
}
