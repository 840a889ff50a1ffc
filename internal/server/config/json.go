package config

import (
	"encoding/json"
	"os"

	"github.com/lifeledger/lifeledger/internal/flagx"
	"github.com/lifeledger/lifeledger/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "5m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP    string         `json:"endpoint_addr_http"`
	DatabaseDSN         string         `json:"database_dsn"`
	CognitoRegion       string         `json:"cognito_region"`
	CognitoClientID     string         `json:"cognito_client_id"`
	CognitoClientSecret string         `json:"cognito_client_secret"`
	S3AccessKeyID       string         `json:"s3_access_key_id"`
	S3SecretAccessKey   string         `json:"s3_secret_access_key"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	UploadURLExpiry     timex.Duration `json:"upload_url_expiry"`
	DownloadURLExpiry   timex.Duration `json:"download_url_expiry"`
	MaxUploadBytes      int64          `json:"max_upload_bytes"`
	SecureCookies       bool           `json:"secure_cookies"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.CognitoRegion = c.CognitoRegion
	config.CognitoClientID = c.CognitoClientID
	config.CognitoClientSecret = c.CognitoClientSecret
	config.S3AccessKeyID = c.S3AccessKeyID
	config.S3SecretAccessKey = c.S3SecretAccessKey
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.UploadURLExpiry = c.UploadURLExpiry.Duration
	config.DownloadURLExpiry = c.DownloadURLExpiry.Duration
	config.MaxUploadBytes = c.MaxUploadBytes
	config.SecureCookies = c.SecureCookies
}
