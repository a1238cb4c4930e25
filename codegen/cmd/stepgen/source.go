package main

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// step is one described step type. The generated StepMetadata mirrors it.
type step struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Match       string  `json:"match"`
	Description string  `json:"description"`
	Inputs      []input `json:"inputs,omitempty"`
}

type input struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

type configStruct struct {
	name   string
	doc    *ast.CommentGroup
	fields *ast.FieldList
}

// source holds the declarations of one package that matter to stepgen.
type source struct {
	pkg        string
	configs    []configStruct
	runs       map[string]*ast.FuncDecl // receiver type name -> Run
	interfaces map[string]bool
}

func scan(dir string) (*source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	src := &source{
		runs:       make(map[string]*ast.FuncDecl),
		interfaces: make(map[string]bool),
	}
	fset := token.NewFileSet()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") ||
			strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, "_gen.go") {
			continue
		}

		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ParseComments)
		if err != nil {
			return nil, err
		}
		src.pkg = file.Name.Name
		src.collect(file)
	}
	return src, nil
}

func (s *source) collect(file *ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv != nil && d.Name.Name == "Run" && len(d.Recv.List) == 1 {
				name, _ := receiver(d.Recv.List[0].Type)
				s.runs[name] = d
			}
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts := spec.(*ast.TypeSpec)
				switch t := ts.Type.(type) {
				case *ast.InterfaceType:
					s.interfaces[ts.Name.Name] = true
				case *ast.StructType:
					if !strings.HasSuffix(ts.Name.Name, "Config") {
						continue
					}
					doc := ts.Doc
					if doc == nil && len(d.Specs) == 1 {
						doc = d.Doc
					}
					s.configs = append(s.configs, configStruct{name: ts.Name.Name, doc: doc, fields: t.Fields})
				}
			}
		}
	}
}

func (s *source) describe() ([]step, error) {
	var steps []step
	for _, cfg := range s.configs {
		attrs, ok, err := directive(cfg.doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.name, err)
		}
		if !ok {
			continue
		}

		typeName := strings.TrimSuffix(cfg.name, "Config")
		run, ok := s.runs[typeName]
		if !ok {
			return nil, fmt.Errorf("%s: %s has no Run method", cfg.name, typeName)
		}
		match, err := s.match(run)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.name, err)
		}

		steps = append(steps, step{
			Name:        attrs["name"],
			Category:    attrs["category"],
			Match:       match,
			Description: attrs["description"],
			Inputs:      inputs(cfg.fields),
		})
	}
	return steps, nil
}

// match classifies the item parameter of Run(ctx, item, next).
func (s *source) match(run *ast.FuncDecl) (string, error) {
	var params []ast.Expr
	for _, field := range run.Type.Params.List {
		for n := max(len(field.Names), 1); n > 0; n-- {
			params = append(params, field.Type)
		}
	}
	if len(params) != 3 {
		return "", fmt.Errorf("method Run takes %d parameters, want ctx, item and next", len(params))
	}

	_, typeParams := receiver(run.Recv.List[0].Type)
	switch t := params[1].(type) {
	case *ast.Ident:
		switch {
		case t.Name == "any" || typeParams[t.Name]:
			return "open", nil
		case t.Name == "error" || s.interfaces[t.Name]:
			return "supertype", nil
		}
	case *ast.InterfaceType:
		if len(t.Methods.List) == 0 {
			return "open", nil
		}
		return "supertype", nil
	}
	return "exact", nil
}

// receiver returns the base type name of a method receiver and the names of
// its type parameters.
func receiver(expr ast.Expr) (string, map[string]bool) {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}

	params := make(map[string]bool)
	var indices []ast.Expr
	switch t := expr.(type) {
	case *ast.IndexExpr:
		expr, indices = t.X, []ast.Expr{t.Index}
	case *ast.IndexListExpr:
		expr, indices = t.X, t.Indices
	}
	for _, idx := range indices {
		if id, ok := idx.(*ast.Ident); ok {
			params[id.Name] = true
		}
	}

	if id, ok := expr.(*ast.Ident); ok {
		return id.Name, params
	}
	return "", params
}

var directiveKey = regexp.MustCompile(`(?:^|\s)(\w+)=`)

// directive parses the "@step key=value ..." line of a doc comment. A value
// runs until the next key.
func directive(doc *ast.CommentGroup) (map[string]string, bool, error) {
	if doc == nil {
		return nil, false, nil
	}

	for _, c := range doc.List {
		line := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		rest, ok := strings.CutPrefix(line, "@step ")
		if !ok {
			continue
		}

		attrs := make(map[string]string)
		keys := directiveKey.FindAllStringSubmatchIndex(rest, -1)
		for i, loc := range keys {
			end := len(rest)
			if i+1 < len(keys) {
				end = keys[i+1][0]
			}
			key := rest[loc[2]:loc[3]]
			switch key {
			case "name", "category", "description":
			default:
				return nil, false, fmt.Errorf("unknown @step attribute %q", key)
			}
			attrs[key] = strings.TrimSpace(rest[loc[1]:end])
		}
		if attrs["name"] == "" {
			return nil, false, errors.New("@step without a name")
		}
		return attrs, true, nil
	}
	return nil, false, nil
}

func inputs(fields *ast.FieldList) []input {
	var out []input
	for _, field := range fields.List {
		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}

			in := input{Name: snakeCase(name.Name), Type: types.ExprString(field.Type)}
			if field.Tag != nil {
				tag, err := strconv.Unquote(field.Tag.Value)
				if err == nil {
					applyTag(&in, reflect.StructTag(tag).Get("step"))
				}
			}
			out = append(out, in)
		}
	}
	return out
}

// applyTag reads a `step:"name=x,required,default=y,desc=..."` tag. desc
// must come last and may contain commas.
func applyTag(in *input, tag string) {
	opts, desc, found := strings.Cut(tag, "desc=")
	if found {
		in.Description = strings.TrimSpace(desc)
	}

	for _, opt := range strings.Split(opts, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "required":
			in.Required = true
		case "name":
			in.Name = value
		case "default":
			in.Default = value
		}
	}
}

// snakeCase converts a Go identifier, keeping runs of capitals together:
// HTTPClient becomes http_client.
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
