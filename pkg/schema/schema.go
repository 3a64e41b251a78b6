// Package schema checks schema artifacts against the formal specification of
// their kind.
//
// Each supported [registry.SchemaKind] maps to a JSON Schema profile compiled
// once with santhosh-tekuri/jsonschema. The Table Schema profile is embedded
// in the binary; JSON Schema documents are checked against the draft-07
// meta-schema bundled with the validator.
//
// Validation failures are returned as reasons, not errors. An error from
// [Checker.Validate] means the profile itself could not be loaded.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/matzehuels/schemahub/pkg/registry"
)

//go:embed profiles/*.json
var profiles embed.FS

const draft7Meta = "http://json-schema.org/draft-07/schema"

// Checker validates decoded JSON documents.
type Checker interface {
	// Validate returns the reasons doc does not conform. No reasons means the
	// document is valid.
	Validate(doc any) ([]string, error)
}

// JSONSchemaChecker validates documents against one compiled JSON Schema.
type JSONSchemaChecker struct {
	name string
	load func(*jsonschema.Compiler) (string, error)

	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// NewProfileChecker returns a checker for the embedded profile file name.
func NewProfileChecker(name string) *JSONSchemaChecker {
	return &JSONSchemaChecker{
		name: name,
		load: func(c *jsonschema.Compiler) (string, error) {
			data, err := profiles.ReadFile("profiles/" + name)
			if err != nil {
				return "", err
			}
			if err := c.AddResource(name, bytes.NewReader(data)); err != nil {
				return "", err
			}
			return name, nil
		},
	}
}

// NewMetaSchemaChecker returns a checker that accepts any well-formed
// draft-07 JSON Schema document.
func NewMetaSchemaChecker() *JSONSchemaChecker {
	return &JSONSchemaChecker{
		name: "draft-07",
		load: func(*jsonschema.Compiler) (string, error) { return draft7Meta, nil },
	}
}

func (c *JSONSchemaChecker) compiled() (*jsonschema.Schema, error) {
	c.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft7
		url, err := c.load(compiler)
		if err != nil {
			c.err = fmt.Errorf("load profile %s: %w", c.name, err)
			return
		}
		c.schema, c.err = compiler.Compile(url)
	})
	return c.schema, c.err
}

// Validate implements Checker.
func (c *JSONSchemaChecker) Validate(doc any) ([]string, error) {
	sch, err := c.compiled()
	if err != nil {
		return nil, err
	}

	err = sch.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !stderrors.As(err, &verr) {
		return nil, fmt.Errorf("validate against %s: %w", c.name, err)
	}
	return Reasons(verr), nil
}

// Reasons flattens a validation error tree into leaf messages of the form
// "<instance location>: <message>", sorted and deduplicated.
func Reasons(verr *jsonschema.ValidationError) []string {
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	slices.Sort(out)
	return slices.Compact(out)
}

// Decode parses a JSON document the way the validator expects it, keeping
// numbers as json.Number.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return doc, nil
}

var (
	tableSchema = NewProfileChecker("tableschema.json")
	metaSchema  = NewMetaSchemaChecker()
)

// ForKind returns the checker for kind.
func ForKind(kind registry.SchemaKind) (Checker, bool) {
	switch kind {
	case registry.KindTableSchema:
		return tableSchema, true
	case registry.KindJSONSchema:
		return metaSchema, true
	}
	return nil, false
}
