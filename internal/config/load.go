package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// ParseError is a config file that could not be read into Options.
type ParseError struct {
	File    string
	Line    int // 0 when unknown
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// LoadFile reads options from path, choosing the decoder by extension
// (.cue, .toml, .yaml, .yml, .json), and lays them over the defaults.
func LoadFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read config: %w", err)
	}

	var opts Options
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		opts, err = LoadCUE(data, path)
	case ".toml":
		opts, err = LoadTOML(data, path)
	case ".yaml", ".yml", ".json":
		opts, err = LoadYAML(data, path)
	default:
		return Options{}, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return Options{}, err
	}
	return Default().Merge(opts), nil
}

// LoadCUE evaluates data against the embedded #Options schema. Unknown
// fields and malformed refs are rejected with a position.
func LoadCUE(data []byte, filename string) (Options, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Options{}, fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Options{}, cueParseError(filename, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Options")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Options{}, cueParseError(filename, err)
	}

	var opts Options
	if err := unified.Decode(&opts); err != nil {
		return Options{}, cueParseError(filename, err)
	}
	return opts, nil
}

// LoadTOML decodes data, rejecting keys Options does not define.
func LoadTOML(data []byte, filename string) (Options, error) {
	var opts Options
	md, err := toml.Decode(string(data), &opts)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return Options{}, &ParseError{File: filename, Line: perr.Position.Line, Message: perr.Message}
		}
		return Options{}, &ParseError{File: filename, Message: err.Error()}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Options{}, &ParseError{
			File:    filename,
			Message: "unknown keys: " + strings.Join(keys, ", "),
		}
	}
	return opts, nil
}

// LoadYAML decodes YAML or JSON data, rejecting unknown fields.
func LoadYAML(data []byte, filename string) (Options, error) {
	var opts Options
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, &ParseError{File: filename, Message: err.Error()}
	}
	return opts, nil
}

func cueParseError(filename string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ParseError{File: filename, Message: err.Error()}
	}
	first := errs[0]
	pe := &ParseError{File: filename, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		pe.Line = positions[0].Line()
	}
	return pe
}
