package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultConfigPath     = "config/config.yaml"
	defaultAddress        = ":4001"
	defaultAccessTTL      = 2 * time.Hour
	defaultRefreshTTL     = 24 * time.Hour
	defaultRememberTTL    = 60 * 24 * time.Hour
	defaultOTPTTL         = 5 * time.Minute
	defaultOTPMaxAttempts = 5
	defaultOTPSendLimit   = 3
	defaultOTPSendWindow  = 10 * time.Minute
	defaultOTPDailyQuota  = 1000
	defaultCacheTTL       = 5 * time.Minute
	defaultSearchCacheTTL = 30 * time.Second
	defaultSMSEndpoint    = "https://api.mobizon.kz/service/message/sendsmsmessage"
	defaultRecaptchaURL   = "https://www.google.com/recaptcha/api/siteverify"
	minJWTSecretLength    = 16
)

type Config struct {
	Server struct {
		Address        string   `yaml:"address"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret      string        `yaml:"jwt_secret"`
		AccessTTL      time.Duration `yaml:"access_ttl"`
		RefreshTTL     time.Duration `yaml:"refresh_ttl"`
		RememberTTL    time.Duration `yaml:"remember_ttl"`
		OTPTTL         time.Duration `yaml:"otp_ttl"`
		OTPMaxAttempts int           `yaml:"otp_max_attempts"`
		OTPSendLimit   int           `yaml:"otp_send_limit"`
		OTPSendWindow  time.Duration `yaml:"otp_send_window"`
		OTPDailyQuota  int           `yaml:"otp_daily_quota"`
	} `yaml:"auth"`
	Cache struct {
		ListingTTL time.Duration `yaml:"listing_ttl"`
		SearchTTL  time.Duration `yaml:"search_ttl"`
	} `yaml:"cache"`
	Firebase struct {
		ProjectID       string `yaml:"project_id"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`
	Google struct {
		ClientID string `yaml:"client_id"`
	} `yaml:"google"`
	S3 struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"s3"`
	SMS struct {
		Endpoint string `yaml:"endpoint"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"sms"`
	Recaptcha struct {
		Secret    string `yaml:"secret"`
		VerifyURL string `yaml:"verify_url"`
	} `yaml:"recaptcha"`
}

// LoadConfig reads the YAML file (if present), applies environment overrides and defaults.
func LoadConfig() (Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Address = ":" + strings.TrimPrefix(port, ":")
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Firebase.ProjectID, "FIREBASE_PROJECT_ID")
	setString(&c.Firebase.CredentialsFile, "FIREBASE_CREDENTIALS_FILE")
	setString(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.S3.Region, "S3_REGION")
	setString(&c.S3.Bucket, "S3_BUCKET")
	setString(&c.S3.AccessKey, "S3_ACCESS_KEY")
	setString(&c.S3.SecretKey, "S3_SECRET_KEY")
	setString(&c.S3.PublicURL, "S3_PUBLIC_URL")
	setString(&c.SMS.Endpoint, "SMS_ENDPOINT")
	setString(&c.SMS.APIKey, "SMS_API_KEY")
	setString(&c.Recaptcha.Secret, "RECAPTCHA_SECRET")

	if v, err := readIntEnv("REDIS_DB"); err != nil {
		return fmt.Errorf("parse REDIS_DB: %w", err)
	} else if v != nil {
		c.Redis.DB = *v
	}
	if v, err := readIntEnv("OTP_MAX_ATTEMPTS"); err != nil {
		return fmt.Errorf("parse OTP_MAX_ATTEMPTS: %w", err)
	} else if v != nil {
		c.Auth.OTPMaxAttempts = *v
	}
	if v, err := readIntEnv("OTP_SEND_LIMIT"); err != nil {
		return fmt.Errorf("parse OTP_SEND_LIMIT: %w", err)
	} else if v != nil {
		c.Auth.OTPSendLimit = *v
	}
	if v, err := readIntEnv("OTP_DAILY_QUOTA"); err != nil {
		return fmt.Errorf("parse OTP_DAILY_QUOTA: %w", err)
	} else if v != nil {
		c.Auth.OTPDailyQuota = *v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ACCESS_TTL", &c.Auth.AccessTTL},
		{"REFRESH_TTL", &c.Auth.RefreshTTL},
		{"REMEMBER_TTL", &c.Auth.RememberTTL},
		{"OTP_TTL", &c.Auth.OTPTTL},
		{"OTP_SEND_WINDOW", &c.Auth.OTPSendWindow},
		{"LISTING_CACHE_TTL", &c.Cache.ListingTTL},
		{"SEARCH_CACHE_TTL", &c.Cache.SearchTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Auth.AccessTTL == 0 {
		c.Auth.AccessTTL = defaultAccessTTL
	}
	if c.Auth.RefreshTTL == 0 {
		c.Auth.RefreshTTL = defaultRefreshTTL
	}
	if c.Auth.RememberTTL == 0 {
		c.Auth.RememberTTL = defaultRememberTTL
	}
	if c.Auth.OTPTTL == 0 {
		c.Auth.OTPTTL = defaultOTPTTL
	}
	if c.Auth.OTPMaxAttempts == 0 {
		c.Auth.OTPMaxAttempts = defaultOTPMaxAttempts
	}
	if c.Auth.OTPSendLimit == 0 {
		c.Auth.OTPSendLimit = defaultOTPSendLimit
	}
	if c.Auth.OTPSendWindow == 0 {
		c.Auth.OTPSendWindow = defaultOTPSendWindow
	}
	if c.Auth.OTPDailyQuota == 0 {
		c.Auth.OTPDailyQuota = defaultOTPDailyQuota
	}
	if c.Cache.ListingTTL == 0 {
		c.Cache.ListingTTL = defaultCacheTTL
	}
	if c.Cache.SearchTTL == 0 {
		c.Cache.SearchTTL = defaultSearchCacheTTL
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
	if c.SMS.Endpoint == "" {
		c.SMS.Endpoint = defaultSMSEndpoint
	}
	if c.Recaptcha.VerifyURL == "" {
		c.Recaptcha.VerifyURL = defaultRecaptchaURL
	}
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("config: database url is required")
	}
	if c.Database.Driver != "mysql" {
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("config: jwt secret must be at least %d bytes", minJWTSecretLength)
	}
	if c.Auth.OTPMaxAttempts < 1 || c.Auth.OTPSendLimit < 1 {
		return errors.New("config: otp limits must be positive")
	}
	return nil
}

func (c Config) FirebaseEnabled() bool {
	return c.Firebase.CredentialsFile != "" || c.Firebase.ProjectID != ""
}

func (c Config) S3Enabled() bool {
	return c.S3.Bucket != "" && c.S3.AccessKey != "" && c.S3.SecretKey != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func readIntEnv(key string) (*int, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
