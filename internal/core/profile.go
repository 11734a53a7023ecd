package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseProfile decodes one YAML profile document and validates it.
// Unknown keys are rejected so that typos in alias lists surface early.
func ParseProfile(data []byte) (RoleConfig, error) {
	var cfg RoleConfig

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("%w: empty document", ErrInvalidProfile)
		}
		return cfg, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadProfiles parses every .yaml/.yml file directly under dir in fsys,
// in file name order.
func LoadProfiles(fsys fs.FS, dir string) ([]RoleConfig, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read profile dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(path.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	profiles := make([]RoleConfig, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read profile %s: %w", name, err)
		}
		cfg, err := ParseProfile(data)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
		profiles = append(profiles, cfg)
	}
	return profiles, nil
}

// MarshalProfile encodes a profile back to YAML.
func MarshalProfile(cfg RoleConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
