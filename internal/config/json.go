package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/sairammr/TruthCast/internal/flagx"
	"github.com/sairammr/TruthCast/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	ChainWSAddr      string         `json:"chain_ws_addr"`
	ContractAddr     string         `json:"contract_addr"`
	KeystorePath     string         `json:"keystore_path"`
	StegoServiceURL  string         `json:"stego_service_url"`
	StorageBackend   string         `json:"storage_backend"`
	GroveAPIURL      string         `json:"grove_api_url"`
	GroveGatewayURL  string         `json:"grove_gateway_url"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	LensAPIURL       string         `json:"lens_api_url"`
	LensAppAddr      string         `json:"lens_app_addr"`
	LensAccountAddr  string         `json:"lens_account_addr"`
	SessionCachePath string         `json:"session_cache_path"`
	JournalDSN       string         `json:"journal_dsn"`
	EventTimeout     timex.Duration `json:"event_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path is resolved from the -c/-config flags via
// flagx.JsonConfigFlags(); when empty no JSON is loaded. Only fields present
// in the file override the current values. Panics on read or unmarshal
// errors (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ChainWSAddr != "" {
		cfg.ChainWSAddr = jc.ChainWSAddr
	}
	if jc.ContractAddr != "" {
		cfg.ContractAddr = jc.ContractAddr
	}
	if jc.KeystorePath != "" {
		cfg.KeystorePath = jc.KeystorePath
	}
	if jc.StegoServiceURL != "" {
		cfg.StegoServiceURL = jc.StegoServiceURL
	}
	if jc.StorageBackend != "" {
		cfg.StorageBackend = jc.StorageBackend
	}
	if jc.GroveAPIURL != "" {
		cfg.GroveAPIURL = jc.GroveAPIURL
	}
	if jc.GroveGatewayURL != "" {
		cfg.GroveGatewayURL = jc.GroveGatewayURL
	}
	if jc.S3RootUser != "" {
		cfg.S3RootUser = jc.S3RootUser
	}
	if jc.S3RootPassword != "" {
		cfg.S3RootPassword = jc.S3RootPassword
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		cfg.S3BaseEndpoint = jc.S3BaseEndpoint
	}
	if jc.LensAPIURL != "" {
		cfg.LensAPIURL = jc.LensAPIURL
	}
	if jc.LensAppAddr != "" {
		cfg.LensAppAddr = jc.LensAppAddr
	}
	if jc.LensAccountAddr != "" {
		cfg.LensAccountAddr = jc.LensAccountAddr
	}
	if jc.SessionCachePath != "" {
		cfg.SessionCachePath = jc.SessionCachePath
	}
	if jc.JournalDSN != "" {
		cfg.JournalDSN = jc.JournalDSN
	}
	if jc.EventTimeout.Duration != 0 {
		cfg.EventTimeout = time.Duration(jc.EventTimeout.Duration)
	}
}
