package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Filename is the tool configuration file looked up at the scan root.
const Filename = "repotool.yml"

type Config struct {
	Version  string   `yaml:"version"`
	Host     Host     `yaml:"host,omitempty"`
	Metadata Metadata `yaml:"metadata,omitempty"`
	Defaults Defaults `yaml:"defaults,omitempty"`
	Rules    []string `yaml:"rules,omitempty"`
}

type Host struct {
	// Owner is the organization or user that owns provisioned repositories.
	Owner string `yaml:"owner"`
	// Prefix is the URL prefix every descriptor repo field must share.
	// It is also prepended to repository names created during provisioning.
	Prefix string `yaml:"prefix"`
	// BaseURL overrides the hosting API endpoint. Used by tests.
	BaseURL string `yaml:"base_url,omitempty"`
}

type Metadata struct {
	// Filename of component descriptors discovered during tree walks.
	Filename string `yaml:"filename,omitempty"`
}

type Defaults struct {
	// Tier is assigned to descriptors that do not declare one during update.
	Tier string `yaml:"tier,omitempty"`
}

func Default() *Config {
	return &Config{
		Version: "0.1",
		Host: Host{
			Owner:  "Kindred-Systems",
			Prefix: "https://github.com/Kindred-Systems/",
		},
		Metadata: Metadata{Filename: "component.json"},
		Defaults: Defaults{Tier: "unassigned"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadOrDefault loads repotool.yml from root, falling back to built-in
// defaults when the file does not exist.
func LoadOrDefault(root string) (*Config, error) {
	path := filepath.Join(root, Filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

func validate(config *Config) error {
	if config.Version == "" {
		return fmt.Errorf("missing required field: version")
	}
	if config.Metadata.Filename == "" {
		return fmt.Errorf("missing required field: metadata.filename")
	}
	if config.Host.Prefix != "" && !strings.HasSuffix(config.Host.Prefix, "/") {
		return fmt.Errorf("host.prefix must end with a trailing slash: %s", config.Host.Prefix)
	}
	for i, rule := range config.Rules {
		if strings.TrimSpace(rule) == "" {
			return fmt.Errorf("rule %d is empty", i)
		}
	}
	return nil
}

// RepoURL returns the canonical repository URL for a component name.
func (c *Config) RepoURL(name string) string {
	return c.Host.Prefix + name
}
