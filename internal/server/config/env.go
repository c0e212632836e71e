package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded when present. Variables already set in the process
// environment win over the file.
var envFile = ".env"

// parseEnv overlays values from environment variables.
// A malformed numeric or duration value panics, as for flags.
func parseEnv(config *Config) {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	}

	setString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.SecretKey, "JWT_SECRET")
	setString(&config.LogLevel, "LOG_LEVEL")
	setString(&config.MetadataStore, "METADATA_STORE")
	setString(&config.ObjectStore, "OBJECT_STORE")

	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")

	setString(&config.B2KeyID, "B2_APPLICATION_KEY_ID")
	setString(&config.B2Key, "B2_APPLICATION_KEY")
	setString(&config.B2Bucket, "B2_BUCKET_NAME")

	setString(&config.QueueDir, "QUEUE_DIR")
	setDuration(&config.QueuePollInterval, "QUEUE_POLL_INTERVAL")

	setInt(&config.MaxDeleteDepth, "MAX_DELETE_DEPTH")
	setDuration(&config.UITokenTTL, "UI_TOKEN_TTL")
	setDuration(&config.EmailTokenTTL, "EMAIL_TOKEN_TTL")
	setDuration(&config.DownloadURLTTL, "DOWNLOAD_URL_TTL")

	setString(&config.PublicBaseURL, "PUBLIC_BASE_URL")
	setString(&config.MailgunDomain, "MAILGUN_DOMAIN")
	setString(&config.MailgunAPIKey, "MAILGUN_API_KEY")
	setString(&config.MailgunSender, "FROM_EMAIL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
