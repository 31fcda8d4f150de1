package migration

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout accepted by the seed command.
type SeedFile struct {
	Statuses []struct {
		Name        string `yaml:"name"`
		BaseStatus  string `yaml:"base_status"`
		Description string `yaml:"description"`
	} `yaml:"statuses"`
	Queues []struct {
		Name          string `yaml:"name"`
		Prefix        string `yaml:"prefix"`
		DefaultStatus string `yaml:"default_status"`
	} `yaml:"queues"`
	Supporters []struct {
		Email  string `yaml:"email"`
		Name   string `yaml:"name"`
		Active *bool  `yaml:"active"`
	} `yaml:"supporters"`
}

// LoadSeedFile reads and decodes a seed file. Unknown keys are rejected so a
// typo does not silently drop rows.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*SeedFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var seed SeedFile
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	for i, s := range seed.Statuses {
		if s.Name == "" || s.BaseStatus == "" {
			return nil, fmt.Errorf("statuses[%d]: name and base_status are required", i)
		}
	}
	for i, q := range seed.Queues {
		if q.Name == "" || q.Prefix == "" || q.DefaultStatus == "" {
			return nil, fmt.Errorf("queues[%d]: name, prefix and default_status are required", i)
		}
	}
	for i, s := range seed.Supporters {
		if s.Email == "" {
			return nil, fmt.Errorf("supporters[%d]: email is required", i)
		}
	}
	return &seed, nil
}
