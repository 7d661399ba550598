// Package project finds the Titanium project folders a build can target.
package project

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moasq/tibuild/internal/config"
)

// ManifestFile marks a Titanium project root.
const ManifestFile = "tiapp.xml"

// Folder is a candidate project.
type Folder struct {
	Name string
	Path string
}

// Label returns the picker label: the project name when useNames is set and
// a name is known, otherwise the folder's base name.
func (f Folder) Label(useNames bool) string {
	if useNames && f.Name != "" {
		return f.Name
	}
	return filepath.Base(f.Path)
}

// Discover lists the open project folders. Explicit args win, then the
// configured projects, then cwd when it holds a tiapp.xml. An empty result
// is not an error; callers report it.
func Discover(args []string, configured []config.Project, cwd string) ([]Folder, error) {
	var folders []Folder
	switch {
	case len(args) > 0:
		for _, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %s: %w", a, err)
			}
			info, err := os.Stat(abs)
			if err != nil {
				return nil, fmt.Errorf("project folder %s: %w", a, err)
			}
			if !info.IsDir() {
				return nil, fmt.Errorf("project folder %s is not a directory", a)
			}
			folders = append(folders, Folder{Name: ManifestName(abs), Path: abs})
		}
	case len(configured) > 0:
		for _, p := range configured {
			name := p.Name
			if name == "" {
				name = ManifestName(p.Path)
			}
			folders = append(folders, Folder{Name: name, Path: p.Path})
		}
	default:
		if _, err := os.Stat(filepath.Join(cwd, ManifestFile)); err == nil {
			folders = append(folders, Folder{Name: ManifestName(cwd), Path: cwd})
		}
	}
	return folders, nil
}

// ManifestName reads <name> from dir/tiapp.xml. It returns "" when the
// manifest is missing or unreadable.
func ManifestName(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return ""
	}
	var manifest struct {
		Name string `xml:"name"`
	}
	if err := xml.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	return manifest.Name
}
