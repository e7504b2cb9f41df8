package main

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/reforma-go/reforma"
)

// fieldDef is one field entry in a YAML form definition.
type fieldDef struct {
	Path          string            `yaml:"path"`
	Required      bool              `yaml:"required"`
	Min           *float64          `yaml:"min"`
	Max           *float64          `yaml:"max"`
	MinLength     *int              `yaml:"minLength"`
	MaxLength     *int              `yaml:"maxLength"`
	Pattern       string            `yaml:"pattern"`
	ValueAsNumber bool              `yaml:"valueAsNumber"`
	Disabled      bool              `yaml:"disabled"`
	// Messages maps rule type (required, min, pattern, ...) to the message
	// reported when that rule fails.
	Messages map[string]string `yaml:"messages"`
}

// definition is a declarative form: default values plus per-field rules.
type definition struct {
	Defaults map[string]any `yaml:"defaults"`
	Fields   []fieldDef     `yaml:"fields"`
}

func loadDefinition(path string) (*definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def definition
	if err := yaml.Unmarshal(b, &def); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("%s: no fields declared", path)
	}
	seen := map[string]bool{}
	for _, fd := range def.Fields {
		if fd.Path == "" {
			return nil, fmt.Errorf("%s: field with empty path", path)
		}
		if seen[fd.Path] {
			return nil, fmt.Errorf("%s: duplicate field path %q", path, fd.Path)
		}
		seen[fd.Path] = true
	}
	return &def, nil
}

// build compiles the definition into a live form.
func (d *definition) build(criteria reforma.CriteriaMode) (*reforma.Form, error) {
	form := reforma.New(reforma.Options{
		DefaultValues: d.Defaults,
		CriteriaMode:  criteria,
	})
	for _, fd := range d.Fields {
		opts, err := fd.registerOpts()
		if err != nil {
			return nil, err
		}
		form.Register(fd.Path, opts)
	}
	return form, nil
}

func (fd fieldDef) registerOpts() (reforma.RegisterOpts, error) {
	msg := func(typ string) string { return fd.Messages[typ] }
	var o reforma.RegisterOpts
	o.ValueAsNumber = fd.ValueAsNumber
	o.Disabled = fd.Disabled
	if fd.Required {
		o.Required = &reforma.RequiredRule{Message: msg(reforma.TypeRequired)}
	}
	if fd.Min != nil {
		o.Min = &reforma.BoundRule{Value: *fd.Min, Message: msg(reforma.TypeMin)}
	}
	if fd.Max != nil {
		o.Max = &reforma.BoundRule{Value: *fd.Max, Message: msg(reforma.TypeMax)}
	}
	if fd.MinLength != nil {
		o.MinLength = &reforma.LengthRule{Value: *fd.MinLength, Message: msg(reforma.TypeMinLength)}
	}
	if fd.MaxLength != nil {
		o.MaxLength = &reforma.LengthRule{Value: *fd.MaxLength, Message: msg(reforma.TypeMaxLength)}
	}
	if fd.Pattern != "" {
		re, err := regexp.Compile(fd.Pattern)
		if err != nil {
			return o, fmt.Errorf("field %s: pattern: %w", fd.Path, err)
		}
		o.Pattern = &reforma.PatternRule{Value: re, Message: msg(reforma.TypePattern)}
	}
	return o, nil
}
