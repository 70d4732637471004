package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestFile(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		body      string
		wantValid bool
		wantMsg   string
	}{
		{
			name:      "valid default weights",
			file:      "small.json",
			body:      `{"name":"Small","description":"3x3","game_size":3}`,
			wantValid: true,
			wantMsg:   "Spawn weights (default): 2=80% 4=20%",
		},
		{
			name:      "valid custom weights",
			file:      "heavy.json",
			body:      `{"name":"Heavy","description":"d","game_size":4,"initial_tiles":3,"spawn_weights":[{"power":2,"weight":1},{"power":3,"weight":1}]}`,
			wantValid: true,
			wantMsg:   "Spawn weights (custom): 4=50% 8=50%",
		},
		{
			name:    "invalid json",
			file:    "broken.json",
			body:    `{"name": "test", invalid json}`,
			wantMsg: "Invalid JSON",
		},
		{
			name:    "unknown field",
			file:    "typo.json",
			body:    `{"name":"T","description":"d","game_size":4,"gamesize":4}`,
			wantMsg: "unknown field",
		},
		{
			name:    "unsupported size",
			file:    "huge.json",
			body:    `{"name":"Huge","description":"d","game_size":8}`,
			wantMsg: "unsupported game size",
		},
		{
			name:    "missing description",
			file:    "nodesc.json",
			body:    `{"name":"N","game_size":4}`,
			wantMsg: "description is required",
		},
		{
			name:    "too many initial tiles",
			file:    "full.json",
			body:    `{"name":"F","description":"d","game_size":3,"initial_tiles":9}`,
			wantMsg: "initial_tiles must be between 1 and 8",
		},
		{
			name:    "duplicate spawn power",
			file:    "dup.json",
			body:    `{"name":"D","description":"d","game_size":4,"spawn_weights":[{"power":1,"weight":1},{"power":1,"weight":2}]}`,
			wantMsg: "power 1 more than once",
		},
		{
			name:    "game over message without placeholder",
			file:    "msg.json",
			body:    `{"name":"M","description":"d","game_size":4,"messages":{"game_over":"The end"}}`,
			wantMsg: "messages.game_over",
		},
		{
			name:    "bad file name",
			file:    "My Config.json",
			body:    `{"name":"M","description":"d","game_size":4}`,
			wantMsg: "not a usable config id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.file, tt.body)

			result := File(path)
			if result.Valid != tt.wantValid {
				t.Errorf("Expected valid=%v, got %v: %v", tt.wantValid, result.Valid, result.Messages)
			}
			if result.File != tt.file {
				t.Errorf("Expected file name %s, got %s", tt.file, result.File)
			}
			if !strings.Contains(strings.Join(result.Messages, "\n"), tt.wantMsg) {
				t.Errorf("Expected message containing %q, got %v", tt.wantMsg, result.Messages)
			}
		})
	}
}

func TestFile_Missing(t *testing.T) {
	result := File(filepath.Join(t.TempDir(), "nope.json"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if !strings.Contains(result.Messages[0], "Failed to read file") {
		t.Errorf("Unexpected message %v", result.Messages)
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "b.json", `{"name":"B","description":"d","game_size":5}`)
	writeConfig(t, dir, "a.json", `{"name":"A","description":"d","game_size":9}`)
	writeConfig(t, dir, "notes.txt", "ignored")

	results, err := Dir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].File != "a.json" || results[1].File != "b.json" {
		t.Fatalf("Unexpected results %+v", results)
	}

	var out bytes.Buffer
	if Report(&out, results) {
		t.Error("Expected report to flag the invalid config")
	}
	for _, want := range []string{"a.json", "❌ INVALID", "b.json", "✅ VALID", "Some configurations have errors"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in report:\n%s", want, out.String())
		}
	}
}

func TestDir_Empty(t *testing.T) {
	if _, err := Dir(t.TempDir()); err == nil {
		t.Error("Expected error for a directory without configs")
	}
}

func TestShippedConfigs(t *testing.T) {
	results, err := Dir("../configs")
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if !Report(&out, results) {
		t.Errorf("Shipped configs should be valid:\n%s", out.String())
	}
}
