// Package config handles configuration for the TruthCast CLI, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the publisher.
//
// Fields:
//   - ChainWSAddr: websocket endpoint of the chain node; used for both
//     transaction submission and event subscriptions.
//   - ContractAddr: address of the secret-registry contract.
//   - KeystorePath: path to a geth-style keystore file with the signing key.
//   - StegoServiceURL: base URL of the steganography encode/decode service.
//   - StorageBackend: "grove" or "s3".
//   - GroveAPIURL / GroveGatewayURL: Grove upload endpoint and the HTTP
//     gateway used to resolve lens:// URIs for playback.
//   - S3*: settings for the S3-compatible backend (MinIO etc.).
//   - LensAPIURL: base URL of the publication API.
//   - LensAppAddr / LensAccountAddr: app and account addresses used when
//     authenticating a publication session.
//   - SessionCachePath: SQLite file with the encrypted session cache.
//   - JournalDSN: optional PostgreSQL DSN for the run journal; empty disables it.
//   - EventTimeout: how long to wait for the SecretCreated event.
type Config struct {
	ChainWSAddr      string
	ContractAddr     string
	KeystorePath     string
	StegoServiceURL  string
	StorageBackend   string
	GroveAPIURL      string
	GroveGatewayURL  string
	S3RootUser       string
	S3RootPassword   string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
	LensAPIURL       string
	LensAppAddr      string
	LensAccountAddr  string
	SessionCachePath string
	JournalDSN       string
	EventTimeout     time.Duration
}

// LoadDefaults populates c with development defaults.
// NOTE: These values point at local test services and should be overridden.
func (c *Config) LoadDefaults() {
	c.ChainWSAddr = "ws://127.0.0.1:8545"
	c.ContractAddr = "0x0000000000000000000000000000000000000000"
	c.KeystorePath = "keystore.json"
	c.StegoServiceURL = "http://127.0.0.1:5000"
	c.StorageBackend = "grove"
	c.GroveAPIURL = "https://api.grove.storage"
	c.GroveGatewayURL = "https://api.grove.storage"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "truthcast"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LensAPIURL = "https://api.testnet.lens.xyz"
	c.LensAppAddr = ""
	c.LensAccountAddr = ""
	c.SessionCachePath = "session.db"
	c.JournalDSN = ""
	c.EventTimeout = 30 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
