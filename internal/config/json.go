package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/fundwatch/internal/flagx"
)

// Duration accepts both "1m30s" strings and integer nanoseconds in JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		return err
	default:
		return errors.New("invalid duration")
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// JsonConfig is the on-disk shape of Config. Absent fields keep the value
// they had before the file was read.
type JsonConfig struct {
	DatabaseDSN       string   `json:"database_dsn"`
	WalletRPCURL      string   `json:"wallet_rpc_url"`
	ForumBaseURL      string   `json:"forum_base_url"`
	ForumBotUser      string   `json:"forum_bot_user"`
	ForumSecret       string   `json:"forum_secret"`
	ForumTokenTTL     Duration `json:"forum_token_ttl"`
	RequestRetries    *int     `json:"request_retries"`
	RequestRetryDelay Duration `json:"request_retry_delay"`
	LegacyHeight      *uint64  `json:"legacy_height"`
	AnnounceInterval  Duration `json:"announce_interval"`
	DetectInterval    Duration `json:"detect_interval"`
	SyncInterval      Duration `json:"sync_interval"`
	CommentPageSize   int      `json:"comment_page_size"`
	TitleMaxLength    *int     `json:"title_max_length"`
	S3Bucket          string   `json:"s3_bucket"`
	S3Region          string   `json:"s3_region"`
	S3BaseEndpoint    string   `json:"s3_base_endpoint"`
	S3AccessKey       string   `json:"s3_access_key"`
	S3SecretKey       string   `json:"s3_secret_key"`
	QRPrefix          *string  `json:"qr_prefix"`
	GRPCHealthAddr    string   `json:"grpc_health_addr"`
	MetricsAddr       string   `json:"metrics_addr"`
	LogLevel          string   `json:"log_level"`
	LogFormat         string   `json:"log_format"`
}

// parseJson overlays the file named by -c or -config onto config. Without
// either flag nothing is loaded.
func parseJson(config *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.WalletRPCURL, c.WalletRPCURL)
	setString(&config.ForumBaseURL, c.ForumBaseURL)
	setString(&config.ForumBotUser, c.ForumBotUser)
	setString(&config.ForumSecret, c.ForumSecret)
	setDuration(&config.ForumTokenTTL, c.ForumTokenTTL)
	if c.RequestRetries != nil {
		config.RequestRetries = *c.RequestRetries
	}
	setDuration(&config.RequestRetryDelay, c.RequestRetryDelay)
	if c.LegacyHeight != nil {
		config.LegacyHeight = *c.LegacyHeight
	}
	setDuration(&config.AnnounceInterval, c.AnnounceInterval)
	setDuration(&config.DetectInterval, c.DetectInterval)
	setDuration(&config.SyncInterval, c.SyncInterval)
	if c.CommentPageSize != 0 {
		config.CommentPageSize = c.CommentPageSize
	}
	if c.TitleMaxLength != nil {
		config.TitleMaxLength = *c.TitleMaxLength
	}
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	if c.QRPrefix != nil {
		config.QRPrefix = *c.QRPrefix
	}
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
