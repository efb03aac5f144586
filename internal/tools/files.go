package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/aretw0/toolserve/pkg/schema"
)

const listFilesDescription = `Lists all files and folders in the specified directory (Read Only).

Returns a formatted listing of the names of files and folders, or an error
message if the directory does not exist or cannot be accessed.`

// ListFilesDescriptor describes list_files(directory).
func ListFilesDescriptor() domain.Descriptor {
	return domain.NewDescriptor("list_files", listFilesDescription, domain.TypeText,
		domain.Required("directory", domain.TypeString, "The absolute path of the directory to list."),
	)
}

// ListFiles lists one directory, marking each entry [DIR] or [FILE].
// Nothing is written.
func ListFiles(_ context.Context, args schema.Args) domain.Result {
	dir := args.String("directory")

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return domain.Failuref("Error: The directory '%s' does not exist.", dir)
	case errors.Is(err, fs.ErrPermission):
		return permissionDenied(dir)
	case err != nil:
		return unexpected(err)
	case !info.IsDir():
		return domain.Failuref("Error: '%s' is not a directory.", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return permissionDenied(dir)
		}
		return unexpected(err)
	}
	if len(entries) == 0 {
		return domain.Success(fmt.Sprintf("The directory '%s' is empty.", dir))
	}

	lines := make([]string, 0, len(entries)+2)
	lines = append(lines, fmt.Sprintf("Contents of '%s':", dir), strings.Repeat("-", 40))
	for _, e := range entries {
		kind := "[FILE]"
		if isDir(dir, e) {
			kind = "[DIR]"
		}
		lines = append(lines, kind+" "+e.Name())
	}
	return domain.Success(strings.Join(lines, "\n"))
}

// isDir follows symlinks, so a link to a directory lists as [DIR].
func isDir(parent string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}

func permissionDenied(dir string) domain.Result {
	return domain.Failuref("Error: Permission denied when trying to access '%s'.", dir)
}

func unexpected(err error) domain.Result {
	return domain.Failuref("An unexpected error occurred: %v", err)
}
