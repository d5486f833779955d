package config

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a settings file. The format is determined by the file
// extension:
// - .json for JSON
// - .yaml or .yml for YAML
// - .hcl for HCL
// Fields absent from the file keep their defaults.
func Load(ctx context.Context, path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	settings := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = loadJSON(data, settings)
	case ".yaml", ".yml":
		err = loadYAML(data, settings)
	case ".hcl":
		err = loadHCL(data, path, settings)
	default:
		return nil, errors.Errorf("unsupported file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(ctx, settings); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return settings, nil
}

// loadJSON decodes JSON data over the defaults
func loadJSON(data []byte, settings *Settings) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(settings); err != nil {
		return errors.Errorf("parsing JSON: %w", err)
	}
	return nil
}

// loadYAML decodes YAML data over the defaults
func loadYAML(data []byte, settings *Settings) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(settings); err != nil {
		return errors.Errorf("parsing YAML: %w", err)
	}
	return nil
}

// loadHCL decodes HCL data over the defaults
func loadHCL(data []byte, filename string, settings *Settings) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, settings)
	if diags.HasErrors() {
		return errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return nil
}
