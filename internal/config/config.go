// Package config loads the driver-level options of the Bolt core from a
// YAML file (github.com/spf13's sibling projects in this family lean on
// yaml.v3 for exactly this kind of flat settings document), falling back
// to defaults that mirror the original driver's DEFAULT_* constants.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Trust selects how a TLS peer certificate is verified.
type Trust string

const (
	TrustDefault    Trust = "default"
	TrustOnFirstUse Trust = "on-first-use"
)

// Infinite is the sentinel for "no bound" on lifetime/pool-size fields.
const Infinite = -1

// Auth carries the 2/3-tuple basic auth scheme from spec.md §6: a
// principal, a credential, and an optional realm.
type Auth struct {
	Scheme      string `yaml:"scheme"`
	Principal   string `yaml:"principal"`
	Credentials string `yaml:"credentials"`
	Realm       string `yaml:"realm,omitempty"`
}

// ToMap renders the auth token the way Connection.init/hello expects to
// send it: a flat string-keyed dictionary merged into INIT/HELLO fields.
func (a Auth) ToMap() map[string]any {
	m := map[string]any{
		"scheme":      orDefault(a.Scheme, "basic"),
		"principal":   a.Principal,
		"credentials": a.Credentials,
	}
	if a.Realm != "" {
		m["realm"] = a.Realm
	}
	return m
}

func orDefault(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

// Config is every option spec.md §6 recognizes.
type Config struct {
	MaxConnectionLifetime        int    `yaml:"max_connection_lifetime"`
	MaxConnectionPoolSize        int    `yaml:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout int    `yaml:"connection_acquisition_timeout"`
	ConnectionTimeout            int    `yaml:"connection_timeout"`
	KeepAlive                    bool   `yaml:"keep_alive"`
	UserAgent                    string `yaml:"user_agent"`
	Auth                         Auth   `yaml:"auth"`
	Encrypted                    bool   `yaml:"encrypted"`
	Trust                        Trust  `yaml:"trust"`
	KnownHostsPath               string `yaml:"known_hosts_path"`
}

const (
	defaultMaxConnectionLifetime        = 3600
	defaultMaxConnectionPoolSize        = 100
	defaultConnectionAcquisitionTimeout = 60
	defaultConnectionTimeout            = 5
	defaultUserAgent                    = "boltgo/0 go/1.25"
)

// Default returns the configuration the original driver ships when the
// caller supplies nothing.
func Default() *Config {
	return &Config{
		MaxConnectionLifetime:        defaultMaxConnectionLifetime,
		MaxConnectionPoolSize:        defaultMaxConnectionPoolSize,
		ConnectionAcquisitionTimeout: defaultConnectionAcquisitionTimeout,
		ConnectionTimeout:            defaultConnectionTimeout,
		KeepAlive:                    true,
		UserAgent:                    defaultUserAgent,
		Trust:                        TrustDefault,
	}
}

// Load reads a YAML document at path, filling any field the document
// doesn't set with the value from Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Decode onto the defaults so omitted keys keep their default value
	// instead of zeroing out.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
