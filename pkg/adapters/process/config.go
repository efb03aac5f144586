package process

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/toolserve/pkg/domain"
)

// ToolConfig declares a tool backed by a local command.
type ToolConfig struct {
	Name        string             `yaml:"name" json:"name"`
	Description string             `yaml:"description" json:"description"`
	Command     string             `yaml:"command" json:"command"`
	Args        []string           `yaml:"args" json:"args"`
	Environment map[string]string  `yaml:"env" json:"env"`
	Dir         string             `yaml:"dir" json:"dir"`
	Timeout     time.Duration      `yaml:"timeout" json:"timeout"`
	Parameters  []domain.Parameter `yaml:"parameters" json:"parameters"`
	Returns     domain.Type        `yaml:"returns" json:"returns"`
}

// Descriptor is the published shape of the tool.
func (c ToolConfig) Descriptor() domain.Descriptor {
	return domain.NewDescriptor(c.Name, c.Description, c.Returns, c.Parameters...)
}

// ConfigFile represents the structure of a tools file (tools.yaml or tools.json).
type ConfigFile struct {
	Tools []ToolConfig `yaml:"tools" json:"tools"`
}

// LoadTools reads a configuration file (YAML or JSON) and returns the
// declared tools in file order.
func LoadTools(path string) ([]ToolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tools config: %w", err)
	}

	// JSON is valid YAML, so one decoder serves both and durations such as
	// "5s" parse the same way in either format.
	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i, t := range cfg.Tools {
		if t.Command == "" {
			return nil, fmt.Errorf("tool #%d (%q): command is required", i+1, t.Name)
		}
		if t.Dir != "" && !filepath.IsAbs(t.Dir) {
			cfg.Tools[i].Dir = filepath.Join(filepath.Dir(path), t.Dir)
		}
	}
	return cfg.Tools, nil
}
