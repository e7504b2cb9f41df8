package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/reforma-go/reforma"
)

func writeDef(t *testing.T, src string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "form.yaml")
	if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadDefinition(t *testing.T) {
	p := writeDef(t, `
defaults:
  name: ""
fields:
  - path: name
    required: true
    maxLength: 10
    messages:
      required: name is required
  - path: age
    valueAsNumber: true
    min: 18
`)
	def, err := loadDefinition(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(def.Fields) != 2 || def.Fields[0].Path != "name" || !def.Fields[0].Required {
		t.Fatalf("fields = %+v", def.Fields)
	}
	if def.Fields[1].Min == nil || *def.Fields[1].Min != 18 {
		t.Fatalf("min not parsed: %+v", def.Fields[1])
	}
}

func TestLoadDefinitionRejectsDuplicates(t *testing.T) {
	p := writeDef(t, `
fields:
  - path: name
  - path: name
`)
	if _, err := loadDefinition(p); err == nil {
		t.Fatalf("duplicate path accepted")
	}
}

func TestLoadDefinitionRejectsEmpty(t *testing.T) {
	p := writeDef(t, "defaults: {}\n")
	if _, err := loadDefinition(p); err == nil {
		t.Fatalf("definition with no fields accepted")
	}
}

func TestBuildValidatesPerDefinition(t *testing.T) {
	p := writeDef(t, `
fields:
  - path: name
    required: true
    messages:
      required: name is required
  - path: age
    valueAsNumber: true
    min: 18
    messages:
      min: too young
`)
	def, err := loadDefinition(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	form, err := def.build(reforma.CriteriaFirstError)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer form.Close()

	form.Reset(map[string]any{"age": 12}, reforma.ResetOpts{KeepDefaultValues: true})
	valid, err := form.Trigger(context.Background())
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if valid {
		t.Fatalf("expected validation failure")
	}
	errs := form.GetFormState().Errors()
	if e := errs["name"]; e == nil || e.Message != "name is required" {
		t.Fatalf("name error = %+v", e)
	}
	if e := errs["age"]; e == nil || e.Type != reforma.TypeMin || e.Message != "too young" {
		t.Fatalf("age error = %+v", e)
	}
}

func TestBuildRejectsBadPattern(t *testing.T) {
	p := writeDef(t, `
fields:
  - path: code
    pattern: "["
`)
	def, err := loadDefinition(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := def.build(reforma.CriteriaFirstError); err == nil {
		t.Fatalf("invalid pattern accepted")
	}
}
