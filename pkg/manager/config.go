package manager

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roam-net/roam-go/pkg/credentials"
	"github.com/roam-net/roam-go/pkg/log"
	"github.com/roam-net/roam-go/pkg/radio"
)

// Config defaults.
const (
	DefaultSSIDPrefix = "roam"
	DefaultLanguage   = "en"
)

// Config configures the manager. The YAML-tagged fields can be loaded
// from a config file; the rest are wired up by the embedding
// application.
type Config struct {
	// SSIDPrefix prefixes the provisioning AP name.
	SSIDPrefix string `yaml:"ssid_prefix"`

	// Language is the provisioning UI language tag.
	Language string `yaml:"language"`

	// ScanMinIntervalSeconds is the initial station rescan delay.
	ScanMinIntervalSeconds int `yaml:"scan_min_interval_seconds"`

	// ScanMaxIntervalSeconds caps the station rescan delay.
	ScanMaxIntervalSeconds int `yaml:"scan_max_interval_seconds"`

	// MaxTxPower caps transmit power (quarter-dBm, 0 = driver default).
	MaxTxPower int8 `yaml:"max_tx_power"`

	// RememberBSSID pins station connects to the scanned BSSID/channel.
	RememberBSSID bool `yaml:"remember_bssid"`

	// DNSAddr is the captive-portal DNS listen address (default ":53").
	DNSAddr string `yaml:"dns_addr"`

	// DisableMDNS turns off the provisioning mDNS announcement.
	DisableMDNS bool `yaml:"disable_mdns"`

	// Driver is the radio driver (required).
	Driver radio.Driver `yaml:"-"`

	// Store holds the network credentials (required).
	Store credentials.Store `yaml:"-"`

	// Logger is the optional operational logger.
	Logger *slog.Logger `yaml:"-"`

	// EventLogger is the optional event capture sink.
	EventLogger log.Logger `yaml:"-"`
}

// applyDefaults fills in zero-valued tunables.
func (c *Config) applyDefaults() {
	if c.SSIDPrefix == "" {
		c.SSIDPrefix = DefaultSSIDPrefix
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
}

// ScanMinInterval returns the configured minimum rescan delay, or zero
// to let the station machine pick its default.
func (c *Config) ScanMinInterval() time.Duration {
	return time.Duration(c.ScanMinIntervalSeconds) * time.Second
}

// ScanMaxInterval returns the configured maximum rescan delay, or zero
// to let the station machine pick its default.
func (c *Config) ScanMaxInterval() time.Duration {
	return time.Duration(c.ScanMaxIntervalSeconds) * time.Second
}

// LoadConfig reads the YAML-tagged Config fields from a file. The
// runtime fields remain unset.
func LoadConfig(path string) (Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse config: %w", err)
	}

	config.applyDefaults()
	return config, nil
}
