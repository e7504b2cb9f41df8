package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reforma-go/reforma"
	"github.com/reforma-go/reforma/i18n"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "validate":
		validateCmd(os.Args[2:])
	case "fields":
		fieldsCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "reforma CLI\n\nUsage:\n  reforma validate -form form.yaml -data data.json [-criteria first|all]\n  reforma fields -form form.yaml\n\nNotes:\n  - The data file may be JSON or YAML; the extension decides.")
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var formPath, dataPath, criteria string
	fs.StringVar(&formPath, "form", "", "form definition (YAML)")
	fs.StringVar(&dataPath, "data", "", "values document (JSON or YAML)")
	fs.StringVar(&criteria, "criteria", "first", "error collection: first or all")
	var lang string
	fs.StringVar(&lang, "lang", "en", "language for messages the form does not override")
	_ = fs.Parse(args)
	i18n.SetLanguage(lang)
	if formPath == "" || dataPath == "" {
		fs.Usage()
		os.Exit(2)
	}

	cm := reforma.CriteriaFirstError
	if criteria == "all" {
		cm = reforma.CriteriaAll
	}
	def, err := loadDefinition(formPath)
	if err != nil {
		fatalf("loading form: %v", err)
	}
	form, err := def.build(cm)
	if err != nil {
		fatalf("building form: %v", err)
	}
	defer form.Close()

	values, err := loadValues(dataPath)
	if err != nil {
		fatalf("loading data: %v", err)
	}
	form.Reset(values, reforma.ResetOpts{KeepDefaultValues: true})

	ok, err := form.Trigger(context.Background())
	if err != nil {
		fatalf("validate: %v", err)
	}
	if ok {
		fmt.Println("ok")
		return
	}
	errs := form.GetFormState().Errors()
	paths := make([]string, 0, len(errs))
	for p := range errs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		e := errs[p]
		fmt.Printf("%s: %s (%s)\n", p, message(e.Type, e.Message), e.Type)
		for typ, m := range e.Types {
			if typ != e.Type {
				fmt.Printf("%s: %s (%s)\n", p, message(typ, m), typ)
			}
		}
	}
	os.Exit(1)
}

func fieldsCmd(args []string) {
	fs := flag.NewFlagSet("fields", flag.ExitOnError)
	var formPath string
	fs.StringVar(&formPath, "form", "", "form definition (YAML)")
	_ = fs.Parse(args)
	if formPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	def, err := loadDefinition(formPath)
	if err != nil {
		fatalf("loading form: %v", err)
	}
	for _, fd := range def.Fields {
		line := fd.Path
		if fd.Required {
			line += " (required)"
		}
		fmt.Println(line)
	}
}

// loadValues reads a JSON or YAML values document into a value tree.
func loadValues(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return out, nil
}

// message falls back to the translator dictionary when the definition
// declared no message for a failing rule.
func message(typ, msg string) string {
	if msg != "" {
		return msg
	}
	return i18n.T(typ, nil)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "reforma: "+format+"\n", a...)
	os.Exit(1)
}
