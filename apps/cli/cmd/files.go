package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/hitblock/packages/core/runner"
)

// DocumentExtensions are the file extensions collected from directories.
var DocumentExtensions = []string{".http", ".rest", ".hitblock"}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isDocumentFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			// Explicit files are taken whatever their extension.
			files = append(files, arg)
		}
	}

	return files, nil
}

func isDocumentFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range DocumentExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return runner.SplitLines(string(data)), nil
}
