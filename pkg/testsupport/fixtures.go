package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-todos/todo"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// SeedTodos inserts every CreateInput listed in the JSON fixture at path and
// returns the stored todos in fixture order.
func SeedTodos(t *testing.T, store todo.Store, path string) []todo.Todo {
	t.Helper()

	var inputs []todo.CreateInput
	LoadFixtureJSON(t, path, &inputs)

	out := make([]todo.Todo, 0, len(inputs))
	for _, in := range inputs {
		created, err := store.Insert(context.Background(), in)
		if err != nil {
			t.Fatalf("failed to seed todo %q: %v", in.Title, err)
		}
		out = append(out, *created)
	}
	return out
}
