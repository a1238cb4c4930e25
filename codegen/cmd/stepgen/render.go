package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/format"
	"strconv"
	"text/template"
)

//go:embed metadata.go.tmpl
var metadataTemplate string

var metadata = template.Must(template.New("metadata").
	Funcs(template.FuncMap{"quote": strconv.Quote}).
	Parse(metadataTemplate))

// render executes the template and gofmts the result.
func render(pkg string, steps []step) ([]byte, error) {
	var buf bytes.Buffer
	err := metadata.Execute(&buf, struct {
		Package string
		Steps   []step
	}{pkg, steps})
	if err != nil {
		return nil, err
	}

	code, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return code, nil
}
