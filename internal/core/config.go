package core

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// ForwarderConfig is the top-level configuration for an icnfwd process,
// loaded from YAML the way the teacher's fw/cmd loads its daemon
// config with toolutils.ReadYaml (github.com/goccy/go-yaml underneath).
type ForwarderConfig struct {
	LogLevel   string           `yaml:"log_level"`
	Faces      FacesConfig      `yaml:"faces"`
	Tables     TablesConfig     `yaml:"tables"`
	Autoconfig AutoconfigConfig `yaml:"autoconfig"`
}

// FacesConfig configures the link layer's single shared UDP endpoint.
type FacesConfig struct {
	BindAddr      string `yaml:"bind_addr"`
	Port          uint16 `yaml:"port"`
	AnnounceAddr  string `yaml:"announce_addr"`
	BroadcastAddr string `yaml:"broadcast_addr"`
}

// TablesConfig configures CS/PIT capacity, TTLs, and the aging tick.
type TablesConfig struct {
	CsCapacity  int           `yaml:"cs_capacity"`
	CsTTL       time.Duration `yaml:"cs_ttl"`
	PitTTL      time.Duration `yaml:"pit_ttl"`
	AgeInterval time.Duration `yaml:"age_interval"`
}

// AutoconfigConfig configures the optional autoconfig server stage.
type AutoconfigConfig struct {
	Enabled              bool                       `yaml:"enabled"`
	InterestToApp        bool                       `yaml:"interest_to_app"`
	RegistrationPrefixes []RegistrationPrefixConfig `yaml:"registration_prefixes"`
	LeaseDuration        time.Duration              `yaml:"lease_duration"`
}

// RegistrationPrefixConfig is one prefix a repository may register
// itself under via the autoconfig server, tagged local (this forwarder
// only, `pl:` in the manifest) or global (routed, `pg:`).
type RegistrationPrefixConfig struct {
	Prefix string `yaml:"prefix"`
	Global bool   `yaml:"global"`
}

// DefaultForwarderConfig returns sensible defaults for all fields not
// set by the operator, mirroring fw/cmd/cmd.go's
// `var config = core.DefaultConfig()` pattern.
func DefaultForwarderConfig() *ForwarderConfig {
	return &ForwarderConfig{
		LogLevel: "INFO",
		Faces: FacesConfig{
			BindAddr:      "0.0.0.0",
			Port:          9000,
			AnnounceAddr:  "127.0.0.1",
			BroadcastAddr: "255.255.255.255",
		},
		Tables: TablesConfig{
			CsCapacity:  65536,
			CsTTL:       4 * time.Second,
			PitTTL:      6 * time.Second,
			AgeInterval: 1 * time.Second,
		},
		Autoconfig: AutoconfigConfig{
			Enabled:       false,
			InterestToApp: false,
			LeaseDuration: time.Hour,
		},
	}
}

// LoadForwarderConfig reads a YAML configuration file into a
// DefaultForwarderConfig(), overriding only the fields present in the
// file.
func LoadForwarderConfig(path string) (*ForwarderConfig, error) {
	cfg := DefaultForwarderConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// RepoConfig is the configuration for an icnrepo process: a content
// producer that registers its prefixes with a forwarder via autoconfig.
type RepoConfig struct {
	LogLevel      string `yaml:"log_level"`
	Name          string `yaml:"name"`
	SelfAddr      string `yaml:"self_addr"`
	SelfPort      uint16 `yaml:"self_port"`
	BroadcastAddr string `yaml:"broadcast_addr"`
	ForwarderPort uint16 `yaml:"forwarder_port"`
	RegisterLocal   bool    `yaml:"register_local"`
	RegisterGlobal  bool    `yaml:"register_global"`
	DefaultPrefix   string  `yaml:"default_prefix"`
	RenewalFraction float64 `yaml:"renewal_fraction"`
}

// DefaultRepoConfig returns sensible defaults for an icnrepo process.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		LogLevel:       "INFO",
		Name:           "repo",
		SelfAddr:       "127.0.1.1",
		SelfPort:       1337,
		BroadcastAddr:  "255.255.255.255",
		ForwarderPort:  9000,
		RegisterLocal:   true,
		RegisterGlobal:  true,
		DefaultPrefix:   "/unconfigured",
		RenewalFraction: 0.75,
	}
}

// LoadRepoConfig reads a YAML configuration file into a
// DefaultRepoConfig(), overriding only the fields present in the file.
func LoadRepoConfig(path string) (*RepoConfig, error) {
	cfg := DefaultRepoConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
