package steam

import (
	"fmt"
	"io"
	"sort"

	"github.com/andygrunwald/vdf"
)

// parseLibraryFolders extracts library paths from a libraryfolders.vdf
// stream. Entries without a path value are skipped; the result is sorted
// for stable output.
func parseLibraryFolders(r io.Reader) ([]string, error) {
	parser := vdf.NewParser(r)
	data, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	folders, ok := data["libraryfolders"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("no libraryfolders block found")
	}

	var libraries []string
	for _, v := range folders {
		entry, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		path, ok := entry["path"].(string)
		if !ok || path == "" {
			continue
		}
		libraries = append(libraries, path)
	}
	sort.Strings(libraries)
	return libraries, nil
}
