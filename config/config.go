// Package config loads an optimization job's tunables from YAML, following
// the strict-field-checking decode pattern used elsewhere in the broader
// toolchain this engine ships alongside.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

// File is the on-disk shape of an optimization config file: an
// OptimizationOptions block plus a RouterConfig block, both optional —
// missing sections fall back to their package defaults. Each section is
// held as a raw *yaml.Node rather than decoded straight into the model
// type, so that decoding it later onto an already-populated defaults
// struct only overwrites the fields the section actually names, leaving
// every field it omits at its default instead of the Go zero value.
type File struct {
	Options *yaml.Node `yaml:"options"`
	Router  *yaml.Node `yaml:"router"`
}

// Load reads and strictly decodes path into a File, applying
// DefaultOptions/DefaultRouterConfig for any field a section omits, whether
// the whole section is absent or just one field within it. Unknown
// top-level or nested keys are a decode error (typos must surface, not
// silently no-op).
func Load(path string) (model.OptimizationOptions, model.RouterConfig, error) {
	opt := model.DefaultOptions()
	router := model.DefaultRouterConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return opt, router, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	// An empty file has no YAML document and decodes to io.EOF; treat it as
	// a file with both sections absent.
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return opt, router, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if f.Options != nil {
		if err := strictDecode(f.Options, &model.OptimizationOptions{}); err != nil {
			return opt, router, fmt.Errorf("config: parsing %s: options: %w", path, err)
		}
		if err := f.Options.Decode(&opt); err != nil {
			return opt, router, fmt.Errorf("config: parsing %s: options: %w", path, err)
		}
	}
	if f.Router != nil {
		if err := strictDecode(f.Router, &model.RouterConfig{}); err != nil {
			return opt, router, fmt.Errorf("config: parsing %s: router: %w", path, err)
		}
		if err := f.Router.Decode(&router); err != nil {
			return opt, router, fmt.Errorf("config: parsing %s: router: %w", path, err)
		}
	}
	return opt, router, nil
}

// strictDecode re-decodes node through a KnownFields decoder to catch
// unknown keys, which yaml.Node's own Decode does not check. node.Decode
// itself is used afterward for the actual field-by-field merge onto the
// already-populated defaults, so typos still surface as errors even
// though the merge decode has to run in non-strict mode.
func strictDecode(node *yaml.Node, out interface{}) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	return decoder.Decode(out)
}
