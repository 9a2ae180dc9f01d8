package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	J "cuelang.org/go/encoding/json"
	"cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaFile string

//go:embed default.yaml
var DEFAULT []byte

func build(ctx *cue.Context, path string, data []byte) (*cue.Value, error) {
	switch filepath.Ext(path) {
	case ".json":
		expr, err := J.Extract(path, data)
		if err != nil {
			return nil, err
		}

		value := ctx.BuildExpr(expr)
		if err := value.Err(); err != nil {
			return nil, err
		}
		return &value, nil
	case ".yaml", ".yml":
		file, err := yaml.Extract(path, data)
		if err != nil {
			return nil, err
		}

		value := ctx.BuildFile(file)
		if err := value.Err(); err != nil {
			return nil, err
		}
		return &value, nil
	}

	return nil, fmt.Errorf("not in a valid format")
}

func readFile(ctx *cue.Context, path string) (*cue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("does not exist")
	}

	return build(ctx, path, data)
}

// Process reads the given configuration files in order and unifies each
// with the schema. Anything a file leaves out takes the schema's default;
// with no files at all the embedded default is used.
func Process(configPaths []string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaFile)
	if err := schema.Err(); err != nil {
		return nil, err
	}

	if len(configPaths) == 0 {
		value, err := build(ctx, "<default>.yaml", DEFAULT)
		if err != nil {
			return nil, err
		}

		schema = schema.Unify(*value)
		if err := schema.Err(); err != nil {
			return nil, fmt.Errorf(
				"invalid default config file: %v",
				err,
			)
		}
	}

	for _, path := range configPaths {
		value, err := readFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf(
				"could not process config file %s: %v",
				path,
				err,
			)
		}

		schema = schema.Unify(*value)
		if err := schema.Err(); err != nil {
			return nil, fmt.Errorf(
				"could not merge config file %s: %v",
				path,
				err,
			)
		}

		if err := schema.Validate(); err != nil {
			return nil, fmt.Errorf(
				"config file %s is not valid: %v",
				path,
				err,
			)
		}
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}

	data, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf(
			"could not aggregate config: %v",
			err,
		)
	}

	config := Config{}
	err = json.Unmarshal(data, &config)
	return &config, err
}
