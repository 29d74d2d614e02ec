package config

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/mittwald/authprobe/internal/helper"
	"github.com/mittwald/authprobe/pkg/probe"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultConfigDir  = "/etc/authprobe.d"
	DefaultTargetName = "default"
	DefaultBaseURL    = "https://odgp7mptod.execute-api.eu-west-1.amazonaws.com/dev/"
	DefaultToken      = "ENV:AUTHPROBE_TOKEN"
)

var ErrNoConfigFiles = errors.New("no configuration files found")

// Default returns the configuration used when no configuration files exist.
func Default() *Config {
	cfg := &Config{
		Targets: []Target{{
			Name:      DefaultTargetName,
			BaseURL:   DefaultBaseURL,
			Resources: append([]string(nil), probe.DefaultResources...),
			Token:     DefaultToken,
		}},
	}
	cfg.resolve()
	return cfg
}

func (cfg *Config) GenerateFromConfigDir(configDir string) error {
	configDir = strings.TrimRight(configDir, "/")

	matches, err := findFilesInPath(configDir)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNoConfigFiles
	}
	if err != nil {
		return err
	}

	for _, m := range matches {
		log.Infof("found config file: %s", m)

		contents, err := os.ReadFile(m)
		if err != nil {
			return errors.Wrapf(err, "could not read configuration file %s", m)
		}

		if err := cfg.parse(m, contents); err != nil {
			return err
		}
	}

	cfg.resolve()
	return cfg.Validate()
}

func (cfg *Config) parse(name string, contents []byte) error {
	var fileCfg Config
	if err := hcl.Unmarshal(contents, &fileCfg); err != nil {
		return errors.Wrapf(err, "could not parse configuration file %s", name)
	}

	cfg.Targets = append(cfg.Targets, fileCfg.Targets...)
	return nil
}

func (cfg *Config) resolve() {
	for i := range cfg.Targets {
		cfg.Targets[i].resolve()
	}
}

func (cfg *Config) Validate() error {
	seen := make(map[string]bool, len(cfg.Targets))

	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.Name] {
			return fmt.Errorf("target %q is defined more than once", t.Name)
		}
		seen[t.Name] = true
	}

	return nil
}

func (cfg *Config) Target(name string) (*Target, bool) {
	for i := range cfg.Targets {
		if cfg.Targets[i].Name == name {
			return &cfg.Targets[i], true
		}
	}
	return nil, false
}

func (cfg *Config) TargetNames() []string {
	names := make([]string, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		names = append(names, t.Name)
	}
	return names
}

func (t *Target) resolve() {
	t.BaseURL = helper.ResolveEnv(t.BaseURL)
	t.Token = helper.ResolveEnv(t.Token)
	t.Timeout = helper.ResolveEnv(t.Timeout)
	t.Resources = helper.SetDefaultSliceIfEmpty(t.Resources, probe.DefaultResources, "resources", "target")

	for k, v := range t.Headers {
		t.Headers[k] = helper.ResolveEnv(v)
	}
}

func (t *Target) Validate() error {
	if t.Name == "" {
		return errors.New("target without name")
	}
	if t.BaseURL == "" {
		return fmt.Errorf("target %q has no baseURL", t.Name)
	}
	if _, err := t.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration returns the per-request timeout; zero means no timeout.
func (t *Target) TimeoutDuration() (time.Duration, error) {
	if t.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(t.Timeout)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid timeout duration for target %q", t.Name)
	}
	return d, nil
}

// Prober builds the prober for this target.
func (t *Target) Prober() (*probe.Prober, error) {
	timeout, err := t.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	return probe.New(t.BaseURL, t.Resources,
		probe.WithTimeout(timeout),
		probe.WithHeaders(t.Headers),
	), nil
}
