package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the redline home directory.
	DefaultDirName = ".redline"

	// DataDirName is the subdirectory for document data.
	DataDirName = "data"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// DatabaseFileName is the embedded database file name.
	DatabaseFileName = "redline.db"
)

// Dir represents the redline home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.redline).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DatabasePath returns the path to the embedded database.
func (d *Dir) DatabasePath() string {
	return filepath.Join(d.path, DatabaseFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create data directory (this also creates the parent)
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// RegionsDir returns the directory for a document's cropped region images.
func (d *Dir) RegionsDir(docID string) string {
	return filepath.Join(d.DataPath(), docID, "regions")
}

// PagesDir returns the directory for a document's full-page scans.
func (d *Dir) PagesDir(docID string) string {
	return filepath.Join(d.DataPath(), docID, "pages")
}

// PagePath returns the path to a specific page image.
// Page numbers are 1-indexed.
func (d *Dir) PagePath(docID string, pageNum int) string {
	return filepath.Join(d.PagesDir(docID), fmt.Sprintf("page_%04d.png", pageNum))
}

// OutputsDir returns the directory for corrected output documents.
func (d *Dir) OutputsDir() string {
	return filepath.Join(d.path, "outputs")
}

// OutputPath returns the path for a document's corrected output.
func (d *Dir) OutputPath(docID, filename string) string {
	return filepath.Join(d.OutputsDir(), docID, filename)
}

// EnsureDocumentDirs creates the region and page directories for a document.
func (d *Dir) EnsureDocumentDirs(docID string) error {
	if err := os.MkdirAll(d.RegionsDir(docID), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(d.PagesDir(docID), 0o755)
}

// EnsureOutputDir creates the output directory for a document.
func (d *Dir) EnsureOutputDir(docID string) error {
	return os.MkdirAll(filepath.Join(d.OutputsDir(), docID), 0o755)
}
