package cache

import (
	"fmt"
	"math/bits"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the user-facing run parameters of a simulation. It is
// the flag/YAML-facing counterpart of Geometry plus the policy name.
type Config struct {
	// Sets is the number of sets (S). Must be a positive power of two.
	Sets int `yaml:"sets"`
	// Ways is the number of lines per set (K). Must be positive.
	Ways int `yaml:"ways"`
	// LineBytes is the line size in bytes (B). Must be a positive
	// power of two.
	LineBytes int `yaml:"line_bytes"`
	// Policy is the eviction policy name, "FIFO" or "LRU".
	Policy string `yaml:"policy"`
}

// DefaultConfig returns a Config with zeroed dimensions and the LRU
// policy. The dimensions have no sensible defaults and must be set
// explicitly; Validate rejects the zero values.
func DefaultConfig() *Config {
	return &Config{Policy: "LRU"}
}

// LoadConfig loads a Config from a YAML file, applying the file's
// values on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Validate checks the geometry rules the simulator relies on: S and B
// positive powers of two, K positive, and a recognized policy name.
func (c *Config) Validate() error {
	if !isPowerOfTwo(c.Sets) {
		return fmt.Errorf("sets must be a positive power of two, got %d", c.Sets)
	}
	if c.Ways <= 0 {
		return fmt.Errorf("ways must be > 0, got %d", c.Ways)
	}
	if !isPowerOfTwo(c.LineBytes) {
		return fmt.Errorf("line_bytes must be a positive power of two, got %d", c.LineBytes)
	}
	if _, err := ParsePolicy(c.Policy); err != nil {
		return err
	}

	return nil
}

// Build turns a validated Config into a ready-to-run Cache.
func (c *Config) Build() (*Cache, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	policy, err := ParsePolicy(c.Policy)
	if err != nil {
		return nil, err
	}

	return New(NewGeometry(c.Sets, c.Ways, c.LineBytes), policy), nil
}

func isPowerOfTwo(v int) bool {
	return v > 0 && bits.OnesCount64(uint64(v)) == 1
}
