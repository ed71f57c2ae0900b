package models

import "path/filepath"

// Fixed names in the Steam installation layout for Baldur's Gate 3.
const (
	GameTitle      = "Baldurs Gate 3"
	Publisher      = "Larian Studios"
	AppDataDirName = "Baldur's Gate 3"
	SteamAppID     = "1086940"
	ProtonUser     = "steamuser"
	OptionalDir    = "OPTIONAL-MODS"
)

// ModDirs are the staging subdirectories copied into the game installation.
var ModDirs = []string{"Data", "bin"}

// DefaultBlacklist lists installed paths that must never be removed.
// Overwriting them is fine, deleting them breaks the game.
var DefaultBlacklist = []string{
	"bin/bink2w64.dll",
	"bin/bink2w64_original.dll",
}

// Paths holds the resolved installation locations for one run. It is
// built once at startup and passed down; nothing mutates it afterwards.
type Paths struct {
	Steam     string
	Libraries []string
	Game      string
	GameData  string
	GameBin   string
	AppData   string
}

// DeployPaths is the explicit configuration for the deploy command: two
// source trees inside the staging directory and two destination trees
// derived from the library root.
type DeployPaths struct {
	LibraryRoot   string
	SourceAppData string
	SourceData    string
	DestAppData   string
	DestData      string
}

// ProtonAppDataPath returns the per-user game appdata directory inside a
// Proton compatibility prefix rooted at the given steamapps directory.
func ProtonAppDataPath(steamapps string) string {
	return filepath.Join(steamapps,
		"compatdata", SteamAppID,
		"pfx", "drive_c", "users", ProtonUser,
		"AppData", "Local", Publisher, AppDataDirName,
	)
}

// GameDataPath returns the game's Data directory under a steamapps root.
func GameDataPath(steamapps string) string {
	return filepath.Join(steamapps, "common", GameTitle, "Data")
}
