package steam

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleVDF = `"libraryfolders"
{
	"0"
	{
		"path"		"/home/user/.local/share/Steam"
		"label"		""
		"contentid"		"4123456789"
	}
	"1"
	{
		"path"		"/mnt/games/SteamLibrary"
		"label"		"games"
		"apps"
		{
			"1086940"		"150000000000"
		}
	}
}
`

func TestParseLibraryFolders(t *testing.T) {
	libraries, err := parseLibraryFolders(strings.NewReader(sampleVDF))
	if err != nil {
		t.Fatalf("parseLibraryFolders failed: %v", err)
	}

	expected := []string{"/home/user/.local/share/Steam", "/mnt/games/SteamLibrary"}
	if len(libraries) != len(expected) {
		t.Fatalf("got %d libraries %v; want %d", len(libraries), libraries, len(expected))
	}
	for i, lib := range expected {
		if libraries[i] != lib {
			t.Errorf("libraries[%d] = %q; want %q", i, libraries[i], lib)
		}
	}
}

func TestParseLibraryFoldersWrongTopLevel(t *testing.T) {
	_, err := parseLibraryFolders(strings.NewReader(`"other" { "0" { "path" "/x" } }`))
	if err == nil {
		t.Error("expected error for missing libraryfolders block")
	}
}

func TestDiscoverLibrariesFiltersMissingFolders(t *testing.T) {
	steamRoot := t.TempDir()
	library := t.TempDir()

	vdfBody := `"libraryfolders"
{
	"0"
	{
		"path"		"` + library + `"
	}
	"1"
	{
		"path"		"` + filepath.Join(steamRoot, "does-not-exist") + `"
	}
}
`
	configDir := filepath.Join(steamRoot, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "libraryfolders.vdf"), []byte(vdfBody), 0o644); err != nil {
		t.Fatal(err)
	}

	f := &Finder{Steam: steamRoot}
	libraries, err := f.discoverLibraries()
	if err != nil {
		t.Fatalf("discoverLibraries failed: %v", err)
	}
	if len(libraries) != 1 || libraries[0] != library {
		t.Errorf("libraries = %v; want [%s]", libraries, library)
	}
}

func TestDiscoverGameAcrossLibraries(t *testing.T) {
	empty := t.TempDir()
	library := t.TempDir()
	gameDir := filepath.Join(library, "steamapps", "common", "Baldurs Gate 3")
	for _, sub := range []string{"Data", "bin"} {
		if err := os.MkdirAll(filepath.Join(gameDir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	f := &Finder{Libraries: []string{empty, library}}
	game, err := f.discoverGame()
	if err != nil {
		t.Fatalf("discoverGame failed: %v", err)
	}
	if game != gameDir {
		t.Errorf("game = %q; want %q", game, gameDir)
	}
}

func TestDiscoverValidatesGameLayout(t *testing.T) {
	game := t.TempDir()
	// Data exists but bin is missing
	if err := os.Mkdir(filepath.Join(game, "Data"), 0o755); err != nil {
		t.Fatal(err)
	}

	f := &Finder{Game: game, AppData: t.TempDir()}
	if _, err := f.Discover(); err == nil {
		t.Error("expected error for game root without bin directory")
	}
}

func TestDiscoverWithExplicitPaths(t *testing.T) {
	game := t.TempDir()
	for _, sub := range []string{"Data", "bin"} {
		if err := os.Mkdir(filepath.Join(game, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	appdata := t.TempDir()

	f := &Finder{Game: game, AppData: appdata}
	p, err := f.Discover()
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if p.Game != game || p.AppData != appdata {
		t.Errorf("paths = %+v", p)
	}
	if p.GameData != filepath.Join(game, "Data") || p.GameBin != filepath.Join(game, "bin") {
		t.Errorf("derived paths = %+v", p)
	}
}
