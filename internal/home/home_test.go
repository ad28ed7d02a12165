package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-redline")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-redline" {
			t.Errorf("expected path /tmp/test-redline, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-redline")

	t.Run("DataPath", func(t *testing.T) {
		expected := "/tmp/test-redline/data"
		if dir.DataPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.DataPath())
		}
	})

	t.Run("ConfigPath", func(t *testing.T) {
		expected := "/tmp/test-redline/config.yaml"
		if dir.ConfigPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ConfigPath())
		}
	})

	t.Run("DatabasePath", func(t *testing.T) {
		expected := "/tmp/test-redline/redline.db"
		if dir.DatabasePath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.DatabasePath())
		}
	})

	t.Run("RegionsDir", func(t *testing.T) {
		expected := "/tmp/test-redline/data/doc-1/regions"
		if dir.RegionsDir("doc-1") != expected {
			t.Errorf("expected %s, got %s", expected, dir.RegionsDir("doc-1"))
		}
	})

	t.Run("PagePath", func(t *testing.T) {
		expected := "/tmp/test-redline/data/doc-1/pages/page_0003.png"
		if dir.PagePath("doc-1", 3) != expected {
			t.Errorf("expected %s, got %s", expected, dir.PagePath("doc-1", 3))
		}
	})

	t.Run("OutputPath", func(t *testing.T) {
		expected := "/tmp/test-redline/outputs/doc-1/corrected.docx"
		if dir.OutputPath("doc-1", "corrected.docx") != expected {
			t.Errorf("expected %s, got %s", expected, dir.OutputPath("doc-1", "corrected.docx"))
		}
	})
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	homeDir := filepath.Join(tmpDir, "redline-test")

	dir, err := New(homeDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Directory shouldn't exist yet
	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}

	// Create it
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	// Now it should exist
	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}

	// Data directory should also exist
	if _, err := os.Stat(dir.DataPath()); os.IsNotExist(err) {
		t.Error("data directory should exist after EnsureExists")
	}
}

func TestDir_EnsureDocumentDirs(t *testing.T) {
	dir, _ := New(t.TempDir())

	if err := dir.EnsureDocumentDirs("doc-1"); err != nil {
		t.Fatalf("EnsureDocumentDirs failed: %v", err)
	}
	for _, p := range []string{dir.RegionsDir("doc-1"), dir.PagesDir("doc-1")} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			t.Errorf("missing directory %s", p)
		}
	}
}

func TestDir_ConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	// Config doesn't exist
	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}

	// Create a config file
	configPath := dir.ConfigPath()
	if err := os.WriteFile(configPath, []byte("test: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Now it should exist
	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}
