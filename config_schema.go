package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var configSchemaJSON string

const configSchemaURL = "https://vaxmandate.local/config.schema.json"

var compileConfigSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(configSchemaURL, strings.NewReader(configSchemaJSON)); err != nil {
		return nil, fmt.Errorf("config schema load failed: %w", err)
	}
	return c.Compile(configSchemaURL)
})

// validateConfigSchema checks the shape of a YAML config document before it
// is decoded into Config
func validateConfigSchema(data []byte) error {
	schema, err := compileConfigSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	// Round-trip through JSON so the validator sees JSON types
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var inst any
	if err := dec.Decode(&inst); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	return nil
}
