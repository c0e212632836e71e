package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sparkdrive/internal/flagx"
	"github.com/dmitrijs2005/sparkdrive/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations go
// through timex.Duration so both "5m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP  string         `json:"endpoint_addr_http"`
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	LogLevel          string         `json:"log_level"`
	MetadataStore     string         `json:"metadata_store"`
	ObjectStore       string         `json:"object_store"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	B2KeyID           string         `json:"b2_key_id"`
	B2Key             string         `json:"b2_key"`
	B2Bucket          string         `json:"b2_bucket"`
	QueueDir          string         `json:"queue_dir"`
	QueuePollInterval timex.Duration `json:"queue_poll_interval"`
	MaxDeleteDepth    int            `json:"max_delete_depth"`
	UITokenTTL        timex.Duration `json:"ui_token_ttl"`
	EmailTokenTTL     timex.Duration `json:"email_token_ttl"`
	DownloadURLTTL    timex.Duration `json:"download_url_ttl"`
	PublicBaseURL     string         `json:"public_base_url"`
	MailgunDomain     string         `json:"mailgun_domain"`
	MailgunAPIKey     string         `json:"mailgun_api_key"`
	MailgunSender     string         `json:"mailgun_sender"`
}

// parseJson overlays the JSON file named by -c / -config onto config.
// Keys missing from the file keep their current values. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}
	fromJson(c, config)
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:  c.EndpointAddrHTTP,
		DatabaseDSN:       c.DatabaseDSN,
		SecretKey:         c.SecretKey,
		LogLevel:          c.LogLevel,
		MetadataStore:     c.MetadataStore,
		ObjectStore:       c.ObjectStore,
		S3RootUser:        c.S3RootUser,
		S3RootPassword:    c.S3RootPassword,
		S3Bucket:          c.S3Bucket,
		S3Region:          c.S3Region,
		S3BaseEndpoint:    c.S3BaseEndpoint,
		B2KeyID:           c.B2KeyID,
		B2Key:             c.B2Key,
		B2Bucket:          c.B2Bucket,
		QueueDir:          c.QueueDir,
		QueuePollInterval: timex.Duration{Duration: c.QueuePollInterval},
		MaxDeleteDepth:    c.MaxDeleteDepth,
		UITokenTTL:        timex.Duration{Duration: c.UITokenTTL},
		EmailTokenTTL:     timex.Duration{Duration: c.EmailTokenTTL},
		DownloadURLTTL:    timex.Duration{Duration: c.DownloadURLTTL},
		PublicBaseURL:     c.PublicBaseURL,
		MailgunDomain:     c.MailgunDomain,
		MailgunAPIKey:     c.MailgunAPIKey,
		MailgunSender:     c.MailgunSender,
	}
}

func fromJson(j *JsonConfig, c *Config) {
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.LogLevel = j.LogLevel
	c.MetadataStore = j.MetadataStore
	c.ObjectStore = j.ObjectStore
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.B2KeyID = j.B2KeyID
	c.B2Key = j.B2Key
	c.B2Bucket = j.B2Bucket
	c.QueueDir = j.QueueDir
	c.QueuePollInterval = j.QueuePollInterval.Duration
	c.MaxDeleteDepth = j.MaxDeleteDepth
	c.UITokenTTL = j.UITokenTTL.Duration
	c.EmailTokenTTL = j.EmailTokenTTL.Duration
	c.DownloadURLTTL = j.DownloadURLTTL.Duration
	c.PublicBaseURL = j.PublicBaseURL
	c.MailgunDomain = j.MailgunDomain
	c.MailgunAPIKey = j.MailgunAPIKey
	c.MailgunSender = j.MailgunSender
}
