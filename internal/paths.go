package internal

import (
	"os"
	"path/filepath"
)

// appDirName is the per-profile directory that holds config, sessions and
// archives. It lives either in the workspace root or in the user's home
// directory depending on which scope has been initialized.
const appDirName = ".enai"

// Paths resolves the on-disk layout for one operator profile
type Paths struct {
	GlobalDir    string // ~/.enai
	WorkspaceDir string // <cwd>/.enai
}

// DetectPaths resolves the global and workspace profile directories
func DetectPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, &StorageError{Path: "~", Op: "open", Err: err}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, &StorageError{Path: ".", Op: "open", Err: err}
	}
	return &Paths{
		GlobalDir:    filepath.Join(home, appDirName),
		WorkspaceDir: filepath.Join(cwd, appDirName),
	}, nil
}

// IsWorkspaceMode reports whether a workspace config exists; workspace
// state takes precedence over the global profile when present
func (p *Paths) IsWorkspaceMode() bool {
	_, err := os.Stat(p.WorkspaceConfigPath())
	return err == nil
}

// GlobalConfigPath returns the global config file path
func (p *Paths) GlobalConfigPath() string {
	return filepath.Join(p.GlobalDir, "config.yaml")
}

// WorkspaceConfigPath returns the workspace config file path
func (p *Paths) WorkspaceConfigPath() string {
	return filepath.Join(p.WorkspaceDir, "config.yaml")
}

// activeDir returns the profile dir sessions and archives belong to
func (p *Paths) activeDir() string {
	if p.IsWorkspaceMode() {
		return p.WorkspaceDir
	}
	return p.GlobalDir
}

// SessionsDir returns the directory holding session records and history logs
func (p *Paths) SessionsDir() string {
	return filepath.Join(p.activeDir(), "sessions")
}

// ArchivesDir returns the directory holding archived transcripts
func (p *Paths) ArchivesDir() string {
	return filepath.Join(p.activeDir(), "archives")
}

// CacheDir returns the directory holding the model catalog cache
func (p *Paths) CacheDir() string {
	return filepath.Join(p.GlobalDir, "cache")
}

// EnsureDir creates a directory (and parents) if it does not exist
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &StorageError{Path: dir, Op: "write", Err: err}
	}
	return nil
}
