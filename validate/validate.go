// Package validate checks game configuration JSON files before they are
// deployed. It checks:
//   - JSON structure, with unknown fields reported as errors
//   - Engine rules: name, description, supported game size, initial tiles,
//     spawn weights and message placeholders
//   - Spawn weight tables that list a power twice
//   - File name usable as a config id
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
)

var configIDPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Result captures the outcome of validating a single file. When Valid is
// true, Messages holds informational lines; otherwise it holds the errors
// found.
type Result struct {
	File     string
	Valid    bool
	Messages []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

// File loads and validates a single configuration file
func File(path string) Result {
	result := Result{
		File:     filepath.Base(path),
		Valid:    true,
		Messages: []string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	id := strings.TrimSuffix(result.File, ".json")
	if !configIDPattern.MatchString(id) {
		result.fail("File name %q is not a usable config id (lowercase letters, digits, _ and -)", id)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var config engine.GameConfig
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
	}

	seen := make(map[int]bool, len(config.SpawnWeights))
	for _, w := range config.SpawnWeights {
		if seen[w.Power] {
			result.fail("spawn weights list power %d more than once", w.Power)
		}
		seen[w.Power] = true
	}

	if !result.Valid {
		return result
	}

	config.ApplyDefaults()
	weights := config.SpawnWeights
	source := "custom"
	if len(weights) == 0 {
		weights, _ = engine.DefaultSpawnWeights(config.GameSize)
		source = "default"
	}

	result.Messages = append(result.Messages,
		fmt.Sprintf("✓ Name: %s", config.Name),
		fmt.Sprintf("✓ Grid: %dx%d", config.GameSize, config.GameSize),
		fmt.Sprintf("✓ Initial tiles: %d", config.InitialTiles),
		fmt.Sprintf("✓ Spawn weights (%s): %s", source, formatWeights(weights)),
	)
	return result
}

// Dir validates every *.json file in dir, sorted by file name
func Dir(dir string) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("find config files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no config files in %s", dir)
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// Report prints results to w and reports whether all of them are valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Messages {
				fmt.Fprintln(w, "  "+info)
			}
			continue
		}

		fmt.Fprintln(w, "❌ INVALID")
		allValid = false
		for _, msg := range result.Messages {
			fmt.Fprintln(w, "  ❌ "+msg)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}

func formatWeights(weights []engine.SpawnWeight) string {
	total := 0
	for _, w := range weights {
		total += w.Weight
	}
	parts := make([]string, len(weights))
	for i, w := range weights {
		parts[i] = fmt.Sprintf("%d=%.0f%%", 1<<w.Power, float64(w.Weight)*100/float64(total))
	}
	return strings.Join(parts, " ")
}
