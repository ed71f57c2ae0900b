//go:build !windows

package steam

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/overviewer/bg3-modsync/pkg/models"
)

// defaultSteamRoot returns the conventional Steam data directory.
func defaultSteamRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	trial := filepath.Join(home, ".local", "share", "Steam")
	if !isDir(trial) {
		return "", &models.PathError{Path: trial, Err: errors.New("cannot find steam")}
	}
	return trial, nil
}

// discoverAppData searches each library's Proton compatibility prefix
// for the game's appdata directory.
func (f *Finder) discoverAppData() (string, error) {
	libraries, err := f.discoverLibraries()
	if err != nil {
		return "", err
	}
	for _, library := range libraries {
		trial := models.ProtonAppDataPath(filepath.Join(library, "steamapps"))
		if isDir(trial) {
			return trial, nil
		}
	}
	return "", &models.PathError{Err: errors.New("cannot find appdata folder in any Steam library")}
}
