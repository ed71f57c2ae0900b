package deploy

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// OpKind is the kind of one planned filesystem operation.
type OpKind int

const (
	OpInstall OpKind = iota
	OpMkdir
	OpRemove
	OpRmdir
)

// Change is one planned operation. Path is relative to the planner root,
// slash-separated. Source is the absolute source file for OpInstall.
type Change struct {
	Path   string
	Kind   OpKind
	Source string
}

// Planner gathers filesystem operations into an ordered change set
// without performing them. Queries account for pending changes layered
// over the real disk, so uninstall and install phases can be planned
// against each other. Re-planning a path moves it to the end of the
// order.
//
// A path is assumed to only ever be a file or a directory within one
// change set; replacing a directory with a same-named file is not
// supported.
type Planner struct {
	root    string
	order   []string
	changes map[string]*Change
}

// NewPlanner returns a planner rooted at root.
func NewPlanner(root string) (*Planner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Planner{
		root:    abs,
		changes: make(map[string]*Change),
	}, nil
}

// Root returns the absolute planner root.
func (p *Planner) Root() string { return p.root }

// normpath turns a path into a normalized slash-separated key relative
// to the root. Relative inputs are taken as relative to the root.
func (p *Planner) normpath(pathname string) string {
	full := pathname
	if !filepath.IsAbs(full) {
		full = filepath.Join(p.root, full)
	}
	rel, err := filepath.Rel(p.root, full)
	if err != nil {
		rel = filepath.Clean(pathname)
	}
	return filepath.ToSlash(rel)
}

func (p *Planner) fullpath(key string) string {
	return filepath.Join(p.root, filepath.FromSlash(key))
}

func (p *Planner) set(key string, c *Change) {
	if _, ok := p.changes[key]; ok {
		p.dropOrder(key)
	}
	p.changes[key] = c
	p.order = append(p.order, key)
}

func (p *Planner) unset(key string) {
	if _, ok := p.changes[key]; !ok {
		return
	}
	delete(p.changes, key)
	p.dropOrder(key)
}

func (p *Planner) dropOrder(key string) {
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			return
		}
	}
}

// Exists reports whether a path exists, accounting for pending changes.
func (p *Planner) Exists(pathname string) bool {
	key := p.normpath(pathname)
	if c, ok := p.changes[key]; ok {
		return c.Kind == OpInstall || c.Kind == OpMkdir
	}
	_, err := os.Stat(p.fullpath(key))
	return err == nil
}

// IsDir reports whether a path is a directory, accounting for pending
// changes.
func (p *Planner) IsDir(pathname string) bool {
	key := p.normpath(pathname)
	if c, ok := p.changes[key]; ok {
		return c.Kind == OpMkdir
	}
	return isDir(p.fullpath(key))
}

// IsFile reports whether a path is a regular file, accounting for
// pending changes.
func (p *Planner) IsFile(pathname string) bool {
	key := p.normpath(pathname)
	if c, ok := p.changes[key]; ok {
		return c.Kind == OpInstall
	}
	info, err := os.Stat(p.fullpath(key))
	return err == nil && !info.IsDir()
}

// List returns the names inside a directory, accounting for pending
// changes, sorted.
func (p *Planner) List(pathname string) []string {
	key := p.normpath(pathname)
	prefix := key + "/"
	if key == "." {
		prefix = ""
	}

	var leaves []string
	seen := make(map[string]bool)

	if entries, err := os.ReadDir(p.fullpath(key)); err == nil {
		for _, entry := range entries {
			name := entry.Name()
			childKey := prefix + name
			if p.Exists(childKey) && !seen[name] {
				leaves = append(leaves, name)
				seen[name] = true
			}
		}
	}

	for k, c := range p.changes {
		if c.Kind == OpRemove || c.Kind == OpRmdir {
			continue
		}
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		leaf := k[len(prefix):]
		if leaf != "" && !strings.Contains(leaf, "/") && !seen[leaf] {
			leaves = append(leaves, leaf)
			seen[leaf] = true
		}
	}
	sort.Strings(leaves)
	return leaves
}

// sameFile reports whether src and dst have identical content. With
// realOnly, pending changes are ignored and only the disk is consulted.
func (p *Planner) sameFile(src, dst string, realOnly bool) (bool, error) {
	key := p.normpath(dst)
	other := p.fullpath(key)
	if !realOnly {
		if c, ok := p.changes[key]; ok {
			if c.Kind != OpInstall {
				return false, nil
			}
			other = c.Source
		}
	}
	if _, err := os.Stat(other); err != nil {
		return false, nil
	}
	return compareFiles(src, other)
}

// MkDir plans a directory creation. Creating an existing directory is a
// no-op.
func (p *Planner) MkDir(dst string) error {
	key := p.normpath(dst)
	if p.IsDir(key) {
		return nil
	}
	if p.Exists(key) {
		return fmt.Errorf("path expected to be a directory: %s", p.fullpath(key))
	}
	p.set(key, &Change{Path: key, Kind: OpMkdir})
	if isDir(p.fullpath(key)) {
		p.unset(key)
	}
	return nil
}

// MkDirAll plans directory creation for dst and any missing parents.
func (p *Planner) MkDirAll(dst string) error {
	key := p.normpath(dst)
	if key == "." || key == "" {
		return nil
	}
	if parent := path.Dir(key); parent != "." {
		if err := p.MkDirAll(parent); err != nil {
			return err
		}
	}
	return p.MkDir(key)
}

// InstallFile plans installing src to dst, creating parent directories
// as needed. Installing a byte-identical file is a no-op.
func (p *Planner) InstallFile(src, dst string) error {
	key := p.normpath(dst)
	if parent := path.Dir(key); parent != "." {
		if err := p.MkDirAll(parent); err != nil {
			return err
		}
	}
	if p.IsDir(key) {
		return fmt.Errorf("path expected to be a file: %s", p.fullpath(key))
	}

	same, err := p.sameFile(src, key, false)
	if err != nil {
		return err
	}
	if same {
		return nil
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	p.set(key, &Change{Path: key, Kind: OpInstall, Source: abs})

	// identical content already on disk cancels the operation
	same, err = p.sameFile(abs, key, true)
	if err != nil {
		return err
	}
	if same {
		p.unset(key)
	}
	return nil
}

// RemoveFile plans removing a file. Removing an absent path is a no-op.
func (p *Planner) RemoveFile(dst string) error {
	key := p.normpath(dst)
	if !p.Exists(key) {
		return nil
	}
	if !p.IsFile(key) {
		return fmt.Errorf("path expected to be a file: %s", p.fullpath(key))
	}
	p.set(key, &Change{Path: key, Kind: OpRemove})
	if _, err := os.Stat(p.fullpath(key)); os.IsNotExist(err) {
		p.unset(key)
	}
	return nil
}

// RemoveDir plans removing a directory. It fails if the directory is not
// empty after pending changes; removing an absent path is a no-op.
func (p *Planner) RemoveDir(dst string) error {
	key := p.normpath(dst)
	if !p.Exists(key) {
		return nil
	}
	if !p.IsDir(key) {
		return fmt.Errorf("path expected to be a directory: %s", p.fullpath(key))
	}
	if len(p.List(key)) > 0 {
		return fmt.Errorf("directory not empty: %s", p.fullpath(key))
	}
	p.set(key, &Change{Path: key, Kind: OpRmdir})
	if _, err := os.Stat(p.fullpath(key)); os.IsNotExist(err) {
		p.unset(key)
	}
	return nil
}

// InstallTree plans installing every file under src into dst.
func (p *Planner) InstallTree(src, dst string) error {
	return filepath.WalkDir(src, func(pathname string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, pathname)
		if err != nil {
			return err
		}
		return p.InstallFile(pathname, filepath.Join(dst, rel))
	})
}

// Changes returns the planned operations in execution order.
func (p *Planner) Changes() []Change {
	changes := make([]Change, 0, len(p.order))
	for _, key := range p.order {
		changes = append(changes, *p.changes[key])
	}
	return changes
}

// Len returns the number of planned operations.
func (p *Planner) Len() int { return len(p.order) }

// Reset clears the change set.
func (p *Planner) Reset() {
	p.order = nil
	p.changes = make(map[string]*Change)
}
