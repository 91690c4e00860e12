package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/bankauth/internal/flagx"
	"github.com/dmitrijs2005/bankauth/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the DTO read from a JSON or YAML config file. Durations use
// timex.Duration, which accepts strings such as "90m" as well as integer
// nanoseconds. Absent keys leave the current value untouched.
type FileConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	MetricsAddr                  *string        `json:"metrics_addr" yaml:"metrics_addr"`
	DatabaseDSN                  string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    string         `json:"secret_key" yaml:"secret_key"`
	Issuer                       string         `json:"issuer" yaml:"issuer"`
	Audience                     string         `json:"audience" yaml:"audience"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	SweepInterval                timex.Duration `json:"sweep_interval" yaml:"sweep_interval"`
	SweepRetryInterval           timex.Duration `json:"sweep_retry_interval" yaml:"sweep_retry_interval"`
	RedisAddr                    string         `json:"redis_addr" yaml:"redis_addr"`
	NatsURL                      string         `json:"nats_url" yaml:"nats_url"`
	LogLevel                     string         `json:"log_level" yaml:"log_level"`
	LogFormat                    string         `json:"log_format" yaml:"log_format"`
}

// parseFile loads the file named by -c/-config, if any, into config. Files
// ending in .yaml or .yml are read as YAML, everything else as JSON.
func parseFile(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	if c.MetricsAddr != nil {
		config.MetricsAddr = *c.MetricsAddr
	}
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Issuer, c.Issuer)
	setString(&config.Audience, c.Audience)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.SweepInterval, c.SweepInterval)
	setDuration(&config.SweepRetryInterval, c.SweepRetryInterval)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.NatsURL, c.NatsURL)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
