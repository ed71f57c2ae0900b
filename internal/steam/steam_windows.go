//go:build windows

package steam

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/overviewer/bg3-modsync/pkg/models"
	"golang.org/x/sys/windows/registry"
)

// defaultSteamRoot reads the Steam install location from the registry.
func defaultSteamRoot() (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, `Software\Valve\Steam`, registry.QUERY_VALUE)
	if err != nil {
		return "", &models.PathError{Err: errors.New("cannot find steam registry key")}
	}
	defer key.Close()

	exe, _, err := key.GetStringValue("SteamExe")
	if err != nil {
		return "", &models.PathError{Err: errors.New("cannot read SteamExe registry value")}
	}
	if info, err := os.Stat(exe); err != nil || info.IsDir() {
		return "", &models.PathError{Path: exe, Err: errors.New("SteamExe does not point to a file")}
	}
	return filepath.Dir(exe), nil
}

// discoverAppData returns the game's directory under %LOCALAPPDATA%.
func (f *Finder) discoverAppData() (string, error) {
	appdata := os.Getenv("LOCALAPPDATA")
	if appdata == "" {
		return "", &models.PathError{Err: errors.New("LOCALAPPDATA is not set")}
	}
	trial := filepath.Join(appdata, models.Publisher, models.AppDataDirName)
	if !isDir(trial) {
		return "", &models.PathError{Path: trial, Err: errors.New("cannot find game appdata folder")}
	}
	return trial, nil
}
