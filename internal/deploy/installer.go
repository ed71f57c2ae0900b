package deploy

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cheggaaa/pb/v3"
	"github.com/gookit/color"

	"github.com/overviewer/bg3-modsync/internal/manifest"
	"github.com/overviewer/bg3-modsync/pkg/models"
)

// Installer plans and commits changes to one managed root, keeping the
// manifest in step so uninstall only ever touches files this tool put
// there.
type Installer struct {
	root       string
	manifest   *manifest.DB
	plan       *Planner
	unmodified map[string]string
	blacklist  []string
}

// NewInstaller opens the manifest under root and prepares an empty plan.
// blacklist patterns (doublestar globs over relative paths) are exempt
// from uninstall planning.
func NewInstaller(root string, blacklist []string) (*Installer, error) {
	db, err := manifest.Open(root)
	if err != nil {
		return nil, err
	}
	unmodified, err := db.Unmodified()
	if err != nil {
		db.Close()
		return nil, err
	}
	plan, err := NewPlanner(db.Root())
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Installer{
		root:       db.Root(),
		manifest:   db,
		plan:       plan,
		unmodified: unmodified,
		blacklist:  blacklist,
	}, nil
}

// Root returns the managed root directory.
func (ins *Installer) Root() string { return ins.root }

// Len returns the number of planned operations.
func (ins *Installer) Len() int { return ins.plan.Len() }

// Close closes the manifest, deleting it when nothing is tracked.
func (ins *Installer) Close() error {
	empty, emptyErr := ins.manifest.Empty()
	dbPath := ins.manifest.Path()
	err := ins.manifest.Close()
	if emptyErr == nil && empty {
		os.Remove(dbPath)
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")
	}
	return err
}

func (ins *Installer) blacklisted(relPath string) bool {
	for _, pattern := range ins.blacklist {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// PlanUninstall plans removal of every tracked, unmodified, non-blacklisted
// file, then of tracked directories left empty. Longest paths go first so
// leaves are removed before their parents.
func (ins *Installer) PlanUninstall() error {
	entries, err := ins.manifest.Entries()
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool {
		return len(entries[i].Path) > len(entries[j].Path)
	})

	for _, entry := range entries {
		if ins.blacklisted(entry.Path) {
			continue
		}
		if entry.Kind == "dir" {
			if ins.plan.IsDir(entry.Path) && len(ins.plan.List(entry.Path)) == 0 {
				if err := ins.plan.RemoveDir(entry.Path); err != nil {
					return err
				}
			}
			continue
		}
		if ins.plan.IsFile(entry.Path) {
			if _, ok := ins.unmodified[entry.Path]; ok {
				if err := ins.plan.RemoveFile(entry.Path); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// PlanTree plans installing every file under src into dst (relative to
// the managed root).
func (ins *Installer) PlanTree(src, dst string) error {
	return ins.plan.InstallTree(src, dst)
}

// Summarize prints the planned changes. It returns false when there is
// nothing to do.
func (ins *Installer) Summarize() bool {
	changes := ins.plan.Changes()
	if len(changes) == 0 {
		return false
	}
	color.Printf("In %s\n", ins.root)
	for _, c := range changes {
		color.Printf("%s %s\n", ins.label(c), c.Path)
	}
	return true
}

func (ins *Installer) label(c Change) string {
	switch c.Kind {
	case OpRemove:
		return "<yellow>  [!] delete   </>"
	case OpRmdir:
		return "<yellow>  [!] rmdir    </>"
	case OpMkdir:
		return "      mkdir    "
	default:
		// overwriting a file we did not install, or one the user edited,
		// deserves a louder label
		full := filepath.Join(ins.root, filepath.FromSlash(c.Path))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			if _, ok := ins.unmodified[c.Path]; !ok {
				return "<red> [!!] overwrite</>"
			}
		}
		return "      install  "
	}
}

// Commit executes the planned changes in order with a progress bar,
// recording every step in the manifest as it lands so an interrupted run
// can be resumed. The first failure aborts the commit.
func (ins *Installer) Commit() error {
	changes := ins.plan.Changes()
	if len(changes) == 0 {
		return nil
	}

	color.Printf("In %s\n", ins.root)
	bar := pb.StartNew(len(changes))
	defer bar.Finish()

	for _, c := range changes {
		full := filepath.Join(ins.root, filepath.FromSlash(c.Path))
		if err := ins.commitOne(c, full); err != nil {
			return &models.SyncError{Source: c.Source, Dest: full, Err: err}
		}
		bar.Increment()
	}
	ins.plan.Reset()
	return nil
}

func (ins *Installer) commitOne(c Change, full string) error {
	switch c.Kind {
	case OpRemove, OpRmdir:
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return err
		}
		return ins.manifest.Forget(c.Path)
	case OpMkdir:
		if err := os.Mkdir(full, 0o755); err != nil && !os.IsExist(err) {
			return err
		}
		return ins.manifest.Record(manifest.Entry{Path: c.Path, Kind: "dir", Hash: manifest.DirHash})
	default:
		if err := copyFile(c.Source, full); err != nil {
			return err
		}
		hash, err := manifest.HashFile(full)
		if err != nil {
			return err
		}
		info, err := os.Stat(full)
		if err != nil {
			return err
		}
		return ins.manifest.Record(manifest.Entry{Path: c.Path, Kind: "file", Hash: hash, Size: info.Size()})
	}
}
