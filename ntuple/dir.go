package ntuple

import (
	"os"
	"sort"
	"strings"
)

// Ext is the canonical container file extension.
const Ext = ".tup.gz"

// IsContainer reports whether a file name looks like a record container.
func IsContainer(name string) bool {
	return strings.HasSuffix(name, ".tup") || strings.HasSuffix(name, ".tup.gz")
}

// List returns the container file names in a directory, sorted.
// Subdirectories and non-container files are skipped.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsContainer(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
