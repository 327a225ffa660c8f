package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/cutscene-engine/pkg/container"
	"github.com/jwebster45206/cutscene-engine/pkg/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <cutscene.json|cutscene.yaml>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &ContainerValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		for _, note := range validator.notes {
			fmt.Printf("  note: %s\n", note)
		}
		fmt.Printf("%s is valid!\n", filename)
	}

	if failed {
		os.Exit(1)
	}
}

type ContainerValidator struct {
	errors []string
	notes  []string
}

func (v *ContainerValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	ext := filepath.Ext(filename)
	format, err := container.ParseFormat(ext)
	if err != nil || ext == "" {
		return fmt.Errorf("cutscene file must have a .json, .yaml or .yml extension: %s", filepath.Base(filename))
	}

	name := strings.TrimSuffix(filepath.Base(filename), ext)
	if err := storage.ValidateName(name); err != nil {
		return fmt.Errorf("cutscene filename %s cannot be stored: %w", filepath.Base(filename), err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil
	v.notes = nil

	c, notes, err := container.DecodeWithNotes(data, format, true)
	if err != nil {
		return fmt.Errorf("file %s failed strict decoding: %w", filename, err)
	}

	v.notes = notes
	for _, problem := range c.Problems() {
		v.addError(problem)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *ContainerValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}
