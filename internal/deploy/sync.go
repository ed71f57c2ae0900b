// Package deploy copies staged mod files into the game installation and
// the game's appdata directory. It offers two modes: a plain validated
// two-tree sync (Run) and a plan/commit installer backed by a manifest
// (Installer).
package deploy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/overviewer/bg3-modsync/pkg/models"
)

// ResolvePaths validates the staging layout under workDir and derives
// the two destination trees from the library root. Every path is checked
// before any copying starts.
func ResolvePaths(workDir, libraryRoot string) (models.DeployPaths, error) {
	var p models.DeployPaths

	p.SourceData = filepath.Join(workDir, "Data")
	if !isDir(p.SourceData) {
		return p, &models.PathError{Path: p.SourceData, Err: errors.New("staging Data directory does not exist")}
	}
	p.SourceAppData = filepath.Join(workDir, models.AppDataDirName)
	if !isDir(p.SourceAppData) {
		return p, &models.PathError{Path: p.SourceAppData, Err: errors.New("staging appdata directory does not exist")}
	}

	if libraryRoot == "" {
		return p, &models.PathError{Err: errors.New("library root argument is required")}
	}
	info, err := os.Stat(libraryRoot)
	if err != nil {
		return p, &models.PathError{Path: libraryRoot, Err: err}
	}
	if !info.IsDir() {
		return p, &models.PathError{Path: libraryRoot, Err: models.ErrNotDirectory}
	}
	p.LibraryRoot = libraryRoot

	p.DestAppData = models.ProtonAppDataPath(libraryRoot)
	if !isDir(p.DestAppData) {
		return p, &models.PathError{Path: p.DestAppData, Err: errors.New("destination appdata directory does not exist")}
	}
	p.DestData = models.GameDataPath(libraryRoot)
	if !isDir(p.DestData) {
		return p, &models.PathError{Path: p.DestData, Err: errors.New("destination game data directory does not exist")}
	}
	return p, nil
}

// SyncTree copies new and changed files from src into dst, descending
// into subdirectories and preserving file mode and mtime. Files present
// only in dst are left alone. It returns the number of files copied.
func SyncTree(src, dst string) (int, error) {
	copied := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm())
		}

		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			same, err := compareFiles(path, target)
			if err != nil {
				return err
			}
			if same {
				return nil
			}
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}

// Run performs the two synchronization steps in their fixed order,
// appdata tree first. A failed step aborts the run; the remaining pair
// is not attempted.
func Run(p models.DeployPaths) error {
	pairs := []struct {
		src, dst string
	}{
		{p.SourceAppData, p.DestAppData},
		{p.SourceData, p.DestData},
	}
	for _, pair := range pairs {
		fmt.Printf("Syncing %s -> %s\n", pair.src, pair.dst)
		copied, err := SyncTree(pair.src, pair.dst)
		if err != nil {
			return &models.SyncError{Source: pair.src, Dest: pair.dst, Err: err}
		}
		fmt.Printf("%d file(s) copied\n", copied)
	}
	return nil
}
