package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenAssemblesService(t *testing.T) {
	t.Setenv("OPPAJEOM_OPENAI_API_KEY", "")
	t.Setenv("OPPAJEOM_REDIS_ADDR", "")
	t.Setenv("OPPAJEOM_TOKEN_PRIVATE_KEY", "")

	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	j, err := Open(context.Background(), Options{DBPath: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if j.Service == nil || j.Interpreter == nil {
		t.Fatalf("journal = %+v", j)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	t.Setenv("OPPAJEOM_OPENAI_API_KEY", "")
	t.Setenv("OPPAJEOM_REDIS_ADDR", "")

	dir := t.TempDir()
	tests := map[string]struct {
		opts Options
		env  map[string]string
	}{
		"missing db path": {opts: Options{}},
		"bad token key": {
			opts: Options{DBPath: filepath.Join(dir, "a.db")},
			env:  map[string]string{"OPPAJEOM_TOKEN_PRIVATE_KEY": "not base64!"},
		},
		"missing font": {
			opts: Options{DBPath: filepath.Join(dir, "b.db"), CardFont: filepath.Join(dir, "missing.ttf")},
		},
		"bad font": {
			opts: Options{DBPath: filepath.Join(dir, "c.db"), CardFont: writeFile(t, dir, "bad.ttf", "not a font")},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("OPPAJEOM_TOKEN_PRIVATE_KEY", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Open(context.Background(), tc.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
