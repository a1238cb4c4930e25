// stepgen writes steps_metadata_gen.go for a package of steps.
//
// A struct is described when its name ends in Config and its doc comment
// carries a directive line:
//
//	// @step name=delay category=flow description=Pauses before delegating
//
// The match kind is not written down. It is read from the item parameter of
// the Run method declared on the type named like the struct minus Config:
// any or a receiver type parameter is open, an interface is supertype and
// anything else is exact. Interfaces imported from other packages cannot be
// told apart from structs without type checking and are reported as exact.
//
// Usage: go run ./codegen/cmd/stepgen [-json] ./steps
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

func main() {
	withJSON := flag.Bool("json", false, "also write steps_metadata.json")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-json] <directory>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := generate(flag.Arg(0), *withJSON); err != nil {
		fmt.Fprintf(os.Stderr, "stepgen: %v\n", err)
		os.Exit(1)
	}
}

func generate(dir string, withJSON bool) error {
	src, err := scan(dir)
	if err != nil {
		return err
	}

	steps, err := src.describe()
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return errors.New("no @step config structs in " + dir)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].Name < steps[j].Name })

	if withJSON {
		data, err := json.MarshalIndent(struct {
			Steps []step `json:"steps"`
		}{steps}, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, "steps_metadata.json"), append(data, '\n'), 0o644); err != nil {
			return err
		}
	}

	code, err := render(src.pkg, steps)
	if err != nil {
		return err
	}
	out := filepath.Join(dir, "steps_metadata_gen.go")
	if err := os.WriteFile(out, code, 0o644); err != nil {
		return err
	}
	fmt.Printf("stepgen: wrote %d steps to %s\n", len(steps), out)
	return nil
}
