package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/schemahub/pkg/errors"
)

// Package is one registry entry: a package id mapped to where its releases
// live, who owns it and which schema kind it publishes.
type Package struct {
	ID    string `yaml:"-"`
	URL   string `yaml:"url"`
	Email string `yaml:"email"`
	Type  string `yaml:"type"`
}

// LoadRegistry reads the YAML registry at path:
//
//	weather-stations:
//	  url: https://github.com/acme/weather
//	  email: ops@acme.test
//	  type: tableschema
//
// Entries are returned sorted by id so runs are deterministic. The schema
// type is not checked here; an unsupported type is reported per package by
// the runner.
func LoadRegistry(path string) ([]Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "registry %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read registry %s", path)
	}
	pkgs, err := ParseRegistry(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "registry %s", path)
	}
	return pkgs, nil
}

// ParseRegistry decodes registry YAML.
func ParseRegistry(data []byte) ([]Package, error) {
	var raw map[string]*Package
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	pkgs := make([]Package, 0, len(raw))
	for id, p := range raw {
		if p == nil {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "package %q has no settings", id)
		}
		if err := errors.ValidatePackageID(id); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.URL) == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "package %q: url is required", id)
		}
		if err := errors.ValidateEmail(p.Email); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "package %q", id)
		}
		p.ID = id
		pkgs = append(pkgs, *p)
	}
	slices.SortFunc(pkgs, func(a, b Package) int { return strings.Compare(a.ID, b.ID) })
	return pkgs, nil
}
