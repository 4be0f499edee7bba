package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
)

// FilesystemOutput writes each message or page snapshot to its own file
// under a directory.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates `dir` if needed, existing files are kept so
// snapshots of earlier runs survive.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

// Path is where Write stores `id`.
func (o FilesystemOutput) Path(id string) string {
	return filepath.Join(o.directory, id)
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(o.Path(id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}
