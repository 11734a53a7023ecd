// Package profiles registers the built-in reconciliation profiles with the
// core registry. Import this package to ensure all profiles are registered.
//
// Each profile is a YAML document in this directory describing how the
// columns of one deployment's timesheet and payroll exports are found.
package profiles

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/JonMunkholm/payrecon/internal/core"
)

//go:embed *.yaml
var files embed.FS

func init() {
	builtin, err := core.LoadProfiles(files, ".")
	if err != nil {
		panic(fmt.Sprintf("load built-in profiles: %v", err))
	}
	for _, p := range builtin {
		core.Register(p)
	}
}

// FS exposes the embedded profile documents.
func FS() fs.FS {
	return files
}

// LoadDir registers every profile found in dir, in addition to the
// built-in ones. Returns the number registered.
func LoadDir(fsys fs.FS, dir string) (int, error) {
	extra, err := core.LoadProfiles(fsys, dir)
	if err != nil {
		return 0, err
	}
	for i, p := range extra {
		if err := core.Add(p); err != nil {
			return i, err
		}
	}
	return len(extra), nil
}
