package discovery

import (
	"os"
	"path/filepath"
	"sort"
)

// FilesystemDirectoryLister locates candidate repository directories on disk.
type FilesystemDirectoryLister struct{}

// NewFilesystemDirectoryLister constructs a directory lister backed by os.ReadDir.
func NewFilesystemDirectoryLister() *FilesystemDirectoryLister {
	return &FilesystemDirectoryLister{}
}

// ListCandidateDirectories returns the immediate subdirectories of the root in lexicographic order.
func (lister *FilesystemDirectoryLister) ListCandidateDirectories(rootDirectory string) ([]string, error) {
	directoryEntries, readError := os.ReadDir(rootDirectory)
	if readError != nil {
		return nil, readError
	}

	var candidateDirectories []string
	for _, directoryEntry := range directoryEntries {
		if !directoryEntry.IsDir() {
			continue
		}
		candidateDirectories = append(candidateDirectories, filepath.Join(rootDirectory, directoryEntry.Name()))
	}

	sort.Strings(candidateDirectories)
	return candidateDirectories, nil
}
