package stylesyncconfig

import (
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/userextra"
)

const DefaultRootDir = "~/.local/share/github.com/jamesrr39/ownmap-stylesync/"

type PathsConfig struct {
	StylesDir string
	ScenesDir string
	TraceDir  string
}

// NewPathsConfig lays out the data directories under rootDir. A leading "~/" is expanded to the user's home directory.
func NewPathsConfig(rootDir string) (*PathsConfig, errorsx.Error) {
	rootDir, err := userextra.ExpandUser(rootDir)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return &PathsConfig{
		StylesDir: filepath.Join(rootDir, "styles"),
		ScenesDir: filepath.Join(rootDir, "scenes"),
		TraceDir:  filepath.Join(rootDir, "trace"),
	}, nil
}

func (pc *PathsConfig) EnsurePaths(fs gofs.Fs) errorsx.Error {
	for _, dirPath := range []string{pc.StylesDir, pc.ScenesDir, pc.TraceDir} {
		err := fs.MkdirAll(dirPath, 0755)
		if err != nil {
			return errorsx.Wrap(err, "dirPath", dirPath)
		}
	}

	return nil
}
