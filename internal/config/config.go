// Package config loads the site descriptor (kartoffeldruck.yaml): site
// locations and locals, content processor selection, named collections and
// the ordered list of generate jobs.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
)

// DefaultFile is the descriptor file name looked up in the site directory.
const DefaultFile = "kartoffeldruck.yaml"

// Descriptor is the parsed site descriptor.
type Descriptor struct {
	Source    string `yaml:"source"`
	Dest      string `yaml:"dest"`
	Templates string `yaml:"templates"`
	Assets    string `yaml:"assets"`

	Locals            map[string]any   `yaml:"locals"`
	ContentProcessors *ProcessorConfig `yaml:"contentProcessors"`

	// Concurrency bounds parallel page generation per fan-out; 0 is unbounded.
	Concurrency int `yaml:"concurrency"`

	Collections map[string]Collection `yaml:"collections"`
	Generate    []Job                 `yaml:"generate"`
}

// Collection is a named, filtered set of pages.
type Collection struct {
	// Source is a glob pattern relative to the source directory.
	Source string `yaml:"source"`
	// Where keeps pages whose field equals (or, for list fields, contains)
	// every given value.
	Where map[string]any `yaml:"where"`
	// Exclude drops pages matching any given value.
	Exclude map[string]any `yaml:"exclude"`
	// SortBy orders pages by a field; a leading '-' sorts descending.
	SortBy string `yaml:"sortBy"`
	// GroupBy turns the collection into groups keyed by the field's values.
	GroupBy string `yaml:"groupBy"`
}

// Grouped reports whether the collection yields groups.
func (c Collection) Grouped() bool { return c.GroupBy != "" }

// Job is one generate call.
type Job struct {
	Name string `yaml:"name"`

	// Source is a glob pattern or page id.
	Source string `yaml:"source"`
	// Collection generates every page of a plain collection.
	Collection string `yaml:"collection"`
	// Each runs the job once per group of a grouped collection, with the
	// group's key and items merged into the locals.
	Each string `yaml:"each"`

	Dest     string         `yaml:"dest"`
	Locals   map[string]any `yaml:"locals"`
	Paginate int            `yaml:"paginate"`

	// Items binds a plain collection to locals.items.
	Items string `yaml:"items"`
	// Bind maps local names to collections.
	Bind map[string]string `yaml:"bind"`
	// Pages maps local names to page ids.
	Pages map[string]string `yaml:"pages"`
}

// Label names the job in logs and metrics.
func (j Job) Label() string {
	switch {
	case j.Name != "":
		return j.Name
	case j.Source != "":
		return j.Source
	case j.Collection != "":
		return j.Collection
	default:
		return "unnamed"
	}
}

// Load reads, expands and validates the descriptor at path. Environment
// variables in the file are expanded before parsing.
func Load(path string) (*Descriptor, error) {
	// #nosec G304 -- the descriptor path is supplied by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapError(err, errors.CategoryConfig, "descriptor not found").
				WithContext("path", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read descriptor").
			WithContext("path", path).
			Build()
	}

	d, err := Parse(data)
	if err != nil {
		if classified, ok := errors.AsClassified(err); ok {
			return nil, classified.WithContext("path", path)
		}
		return nil, err
	}
	return d, nil
}

// Parse decodes and validates descriptor bytes.
func Parse(data []byte) (*Descriptor, error) {
	expanded := os.ExpandEnv(string(data))

	var d Descriptor
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse descriptor").Build()
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
