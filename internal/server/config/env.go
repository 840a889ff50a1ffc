package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names understood by the server. Secrets (the Cognito
// client secret, S3 keys) are normally injected this way rather than via
// flags or config files.
const (
	EnvEndpointAddrHTTP    = "LL_HTTP_ADDR"
	EnvDatabaseDSN         = "LL_DATABASE_DSN"
	EnvCognitoRegion       = "AWS_COGNITO_REGION"
	EnvCognitoClientID     = "AWS_COGNITO_CLIENT_ID"
	EnvCognitoClientSecret = "AWS_COGNITO_CLIENT_SECRET"
	EnvS3AccessKeyID       = "AWS_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey   = "AWS_S3_SECRET_ACCESS_KEY"
	EnvS3Bucket            = "AWS_S3_BUCKET_NAME"
	EnvS3Region            = "AWS_S3_REGION"
	EnvS3BaseEndpoint      = "AWS_S3_BASE_ENDPOINT"
	EnvSecureCookies       = "LL_SECURE_COOKIES"
)

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// parseEnv overlays environment variables onto the Config. Unset or empty
// variables leave the current value untouched.
func parseEnv(config *Config) {
	envString(EnvEndpointAddrHTTP, &config.EndpointAddrHTTP)
	envString(EnvDatabaseDSN, &config.DatabaseDSN)
	envString(EnvCognitoRegion, &config.CognitoRegion)
	envString(EnvCognitoClientID, &config.CognitoClientID)
	envString(EnvCognitoClientSecret, &config.CognitoClientSecret)
	envString(EnvS3AccessKeyID, &config.S3AccessKeyID)
	envString(EnvS3SecretAccessKey, &config.S3SecretAccessKey)
	envString(EnvS3Bucket, &config.S3Bucket)
	envString(EnvS3Region, &config.S3Region)
	envString(EnvS3BaseEndpoint, &config.S3BaseEndpoint)

	if v := strings.TrimSpace(os.Getenv(EnvSecureCookies)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.SecureCookies = b
		}
	}
}
