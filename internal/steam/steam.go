// Package steam resolves the Steam root, library folders, game
// installation, and per-user appdata directory for Baldur's Gate 3.
package steam

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/overviewer/bg3-modsync/pkg/models"
)

// Finder resolves installation paths. Fields set up front (from flags or
// config) are taken as-is and the corresponding discovery step is skipped.
type Finder struct {
	Steam     string
	Libraries []string
	Game      string
	AppData   string
}

// Discover fills in every unset path and validates the result. The
// returned value is complete: game root, Data and bin subdirectories,
// and the appdata directory all exist.
func (f *Finder) Discover() (models.Paths, error) {
	var p models.Paths

	if f.Game == "" {
		game, err := f.discoverGame()
		if err != nil {
			return p, err
		}
		f.Game = game
	}
	p.Game = f.Game
	p.Steam = f.Steam
	p.Libraries = f.Libraries

	p.GameData = filepath.Join(p.Game, "Data")
	if !isDir(p.GameData) {
		return p, &models.PathError{Path: p.GameData, Err: errors.New("game data directory does not exist")}
	}
	p.GameBin = filepath.Join(p.Game, "bin")
	if !isDir(p.GameBin) {
		return p, &models.PathError{Path: p.GameBin, Err: errors.New("game bin directory does not exist")}
	}
	fmt.Printf("found game at %s\n", p.Game)

	if f.AppData == "" {
		appdata, err := f.discoverAppData()
		if err != nil {
			return p, err
		}
		f.AppData = appdata
	}
	if !isDir(f.AppData) {
		return p, &models.PathError{Path: f.AppData, Err: models.ErrNotDirectory}
	}
	p.AppData = f.AppData
	fmt.Printf("found appdata at %s\n", p.AppData)

	return p, nil
}

// discoverGame searches every Steam library for the game directory.
func (f *Finder) discoverGame() (string, error) {
	libraries, err := f.discoverLibraries()
	if err != nil {
		return "", err
	}
	for _, library := range libraries {
		fmt.Printf("searching library %s\n", library)
		gamePath := filepath.Join(library, "steamapps", "common", models.GameTitle)
		if isDir(gamePath) {
			return gamePath, nil
		}
	}
	return "", &models.PathError{Err: errors.New("could not find Baldur's Gate 3 in any Steam library")}
}

// discoverLibraries parses Steam's library configuration and keeps only
// the folders that exist on disk.
func (f *Finder) discoverLibraries() ([]string, error) {
	if len(f.Libraries) > 0 {
		return f.Libraries, nil
	}

	if f.Steam == "" {
		steam, err := defaultSteamRoot()
		if err != nil {
			return nil, err
		}
		f.Steam = steam
	}
	if !isDir(f.Steam) {
		return nil, &models.PathError{Path: f.Steam, Err: models.ErrNotDirectory}
	}
	fmt.Printf("found steam at %s\n", f.Steam)

	configPath := filepath.Join(f.Steam, "config", "libraryfolders.vdf")
	file, err := os.Open(configPath)
	if err != nil {
		return nil, &models.PathError{Path: configPath, Err: errors.New("could not find steam library configuration")}
	}
	defer file.Close()

	all, err := parseLibraryFolders(file)
	if err != nil {
		return nil, fmt.Errorf("could not parse steam library configuration: %v", err)
	}

	var libraries []string
	for _, library := range all {
		if isDir(library) {
			libraries = append(libraries, library)
		}
	}
	f.Libraries = libraries
	return libraries, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
