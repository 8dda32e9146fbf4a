package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/erricrr/hf-togetherai-rpg/pkg/world"
)

var worldFilenamePattern = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <world.json|world.yaml> [...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := 0
	for _, filename := range os.Args[1:] {
		fmt.Printf("Validating %s...\n", filename)
		if err := validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed++
			continue
		}
		fmt.Printf("%s is valid!\n", filename)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func validateFile(filename string) error {
	baseName := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(baseName))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return fmt.Errorf("world file must have a .json, .yaml or .yml extension: %s", baseName)
	}
	if !worldFilenamePattern.MatchString(strings.TrimSuffix(baseName, filepath.Ext(baseName))) {
		return fmt.Errorf("world filename '%s' must be lowercase snake_case (e.g., my_world.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	// Unknown fields in JSON are almost always typos, so reject them.
	if ext == ".json" {
		var strict world.Definition
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&strict); err != nil {
			return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
		}
	}

	def, err := world.Parse(data, ext)
	if err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}
	return validateDefinition(def)
}

func validateDefinition(def *world.Definition) error {
	if err := def.Validate(); err != nil {
		var lines []string
		for _, e := range unwrapJoined(err) {
			lines = append(lines, "  - "+e.Error())
		}
		return fmt.Errorf("%d problem(s):\n%s", len(lines), strings.Join(lines, "\n"))
	}

	var towns, characters int
	for _, k := range def.Kingdoms {
		towns += len(k.Towns)
		for _, t := range k.Towns {
			characters += len(t.NPCs)
		}
	}
	fmt.Printf("  %d kingdoms, %d towns, %d characters, %d starting items\n",
		len(def.Kingdoms), towns, characters, len(def.StartingInventory))
	return nil
}

func unwrapJoined(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
