package pipelineconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
)

// Load reads the YAML file and returns the Config with its raw bytes.
// Unknown fields fail immediately (KnownFields). A missing file is a
// NotFoundError; unreadable or invalid YAML is a ConfigurationError.
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &contracts.NotFoundError{Resource: "config file", Path: path}
		}
		return nil, nil, contracts.Configf("", "read %s: %v", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes and validates YAML bytes
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, contracts.Configf("", "invalid YAML: %v", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Hash generates a SHA-256 hash of the canonical JSON form.
// Ordered mappings serialize in document order, so the hash is stable.
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
