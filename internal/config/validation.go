package config

import (
	"fmt"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
)

// Validate checks cross references between jobs and collections.
func (d *Descriptor) Validate() error {
	if d.Concurrency < 0 {
		return errors.ConfigError("concurrency must not be negative").Build()
	}

	for name, c := range d.Collections {
		if c.Source == "" {
			return errors.ConfigError("collection requires a source").
				WithContext("collection", name).
				Build()
		}
	}

	for i, j := range d.Generate {
		if err := d.validateJob(j); err != nil {
			return err.WithContext("job", fmt.Sprintf("%d (%s)", i, j.Label()))
		}
	}
	return nil
}

func (d *Descriptor) validateJob(j Job) *errors.ClassifiedError {
	if j.Dest == "" {
		return errors.ConfigError("job requires a dest").Build()
	}
	if (j.Source == "") == (j.Collection == "") {
		return errors.ConfigError("job requires exactly one of source or collection").Build()
	}
	if j.Each != "" && j.Source == "" {
		return errors.ConfigError("each requires a source template").Build()
	}
	if j.Paginate < 0 {
		return errors.ConfigError("paginate must not be negative").Build()
	}

	if j.Collection != "" {
		if err := d.requirePlain(j.Collection); err != nil {
			return err
		}
	}
	if j.Items != "" {
		if err := d.requirePlain(j.Items); err != nil {
			return err
		}
	}
	if j.Each != "" {
		c, ok := d.Collections[j.Each]
		if !ok {
			return unknownCollection(j.Each)
		}
		if !c.Grouped() {
			return errors.ConfigError("each requires a grouped collection").
				WithContext("collection", j.Each).
				Build()
		}
	}
	for local, name := range j.Bind {
		if _, ok := d.Collections[name]; !ok {
			return unknownCollection(name).WithContext("local", local)
		}
	}

	if j.Paginate > 0 && j.Items == "" && j.Each == "" {
		if _, ok := j.Locals["items"]; !ok {
			return errors.ConfigError("pagination requires locals.items").Build()
		}
	}
	return nil
}

func (d *Descriptor) requirePlain(name string) *errors.ClassifiedError {
	c, ok := d.Collections[name]
	if !ok {
		return unknownCollection(name)
	}
	if c.Grouped() {
		return errors.ConfigError("collection is grouped; use each or bind").
			WithContext("collection", name).
			Build()
	}
	return nil
}

func unknownCollection(name string) *errors.ClassifiedError {
	return errors.ConfigError("unknown collection").
		WithContext("collection", name).
		Build()
}
