package deploy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/overviewer/bg3-modsync/internal/manifest"
	"github.com/overviewer/bg3-modsync/pkg/models"
)

func TestInstallerInstallCommitTracksFiles(t *testing.T) {
	staging := t.TempDir()
	writeFile(t, staging, "Data/Mods/cool.pak", "pak data")
	writeFile(t, staging, "bin/helper.dll", "dll data")
	root := t.TempDir()

	ins, err := NewInstaller(root, models.DefaultBlacklist)
	if err != nil {
		t.Fatal(err)
	}
	defer ins.Close()

	for _, dir := range []string{"Data", "bin"} {
		if err := ins.PlanTree(filepath.Join(staging, dir), dir); err != nil {
			t.Fatal(err)
		}
	}
	if !ins.Summarize() {
		t.Fatal("expected a non-empty plan")
	}
	if err := ins.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if got := readFile(t, filepath.Join(root, "Data", "Mods", "cool.pak")); got != "pak data" {
		t.Errorf("cool.pak = %q", got)
	}

	db, err := manifest.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	entries, err := db.Entries()
	if err != nil {
		t.Fatal(err)
	}
	// 2 files + 3 directories (Data, Data/Mods, bin)
	if len(entries) != 5 {
		t.Errorf("manifest has %d entries %v; want 5", len(entries), entries)
	}
}

func TestInstallerSecondInstallIsEmpty(t *testing.T) {
	staging := t.TempDir()
	writeFile(t, staging, "Data/a.pak", "a")
	root := t.TempDir()

	install := func() int {
		ins, err := NewInstaller(root, nil)
		if err != nil {
			t.Fatal(err)
		}
		defer ins.Close()
		if err := ins.PlanUninstall(); err != nil {
			t.Fatal(err)
		}
		if err := ins.PlanTree(filepath.Join(staging, "Data"), "Data"); err != nil {
			t.Fatal(err)
		}
		n := ins.Len()
		if err := ins.Commit(); err != nil {
			t.Fatal(err)
		}
		return n
	}

	if n := install(); n == 0 {
		t.Fatal("first install should plan changes")
	}
	if n := install(); n != 0 {
		t.Errorf("second install planned %d changes; want 0", n)
	}
}

func TestInstallerUninstallRemovesOnlyUnmodified(t *testing.T) {
	staging := t.TempDir()
	writeFile(t, staging, "Data/keep-edits.pak", "original")
	writeFile(t, staging, "Data/plain.pak", "plain")
	root := t.TempDir()

	ins, err := NewInstaller(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ins.PlanTree(filepath.Join(staging, "Data"), "Data"); err != nil {
		t.Fatal(err)
	}
	if err := ins.Commit(); err != nil {
		t.Fatal(err)
	}
	ins.Close()

	// the user edits one installed file
	writeFile(t, root, "Data/keep-edits.pak", "user edition")

	ins2, err := NewInstaller(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ins2.Close()
	if err := ins2.PlanUninstall(); err != nil {
		t.Fatal(err)
	}
	if err := ins2.Commit(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(root, "Data", "plain.pak")); !os.IsNotExist(err) {
		t.Error("plain.pak should have been removed")
	}
	if got := readFile(t, filepath.Join(root, "Data", "keep-edits.pak")); got != "user edition" {
		t.Errorf("keep-edits.pak = %q; user edits must survive uninstall", got)
	}
	// Data still holds the edited file, so the directory must survive
	if !isDir(filepath.Join(root, "Data")) {
		t.Error("Data directory should survive while it still has content")
	}
}

func TestInstallerUninstallRemovesEmptyDirsAndManifest(t *testing.T) {
	staging := t.TempDir()
	writeFile(t, staging, "Data/Mods/a.pak", "a")
	root := t.TempDir()

	ins, err := NewInstaller(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ins.PlanTree(filepath.Join(staging, "Data"), "Data"); err != nil {
		t.Fatal(err)
	}
	if err := ins.Commit(); err != nil {
		t.Fatal(err)
	}
	ins.Close()

	ins2, err := NewInstaller(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ins2.PlanUninstall(); err != nil {
		t.Fatal(err)
	}
	if err := ins2.Commit(); err != nil {
		t.Fatal(err)
	}
	if err := ins2.Close(); err != nil {
		t.Fatal(err)
	}

	if isDir(filepath.Join(root, "Data")) {
		t.Error("Data directory should be removed once empty")
	}
	if manifest.Exists(root) {
		t.Error("empty manifest should be deleted on Close")
	}
}

func TestInstallerBlacklistSurvivesUninstall(t *testing.T) {
	staging := t.TempDir()
	writeFile(t, staging, "bin/bink2w64.dll", "protected")
	writeFile(t, staging, "bin/other.dll", "normal")
	root := t.TempDir()

	ins, err := NewInstaller(root, models.DefaultBlacklist)
	if err != nil {
		t.Fatal(err)
	}
	if err := ins.PlanTree(filepath.Join(staging, "bin"), "bin"); err != nil {
		t.Fatal(err)
	}
	if err := ins.Commit(); err != nil {
		t.Fatal(err)
	}
	ins.Close()

	ins2, err := NewInstaller(root, models.DefaultBlacklist)
	if err != nil {
		t.Fatal(err)
	}
	defer ins2.Close()
	if err := ins2.PlanUninstall(); err != nil {
		t.Fatal(err)
	}
	if err := ins2.Commit(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(root, "bin", "bink2w64.dll")); err != nil {
		t.Error("blacklisted file must never be removed")
	}
	if _, err := os.Stat(filepath.Join(root, "bin", "other.dll")); !os.IsNotExist(err) {
		t.Error("non-blacklisted file should have been removed")
	}
}
