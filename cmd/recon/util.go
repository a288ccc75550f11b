package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/webrecon/recon/internal/match"
)

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// walkDir reads every regular file under dir into a match.File, with
// Path relative to dir in POSIX form, so a directory of previously
// extracted sources can be handed straight to the matcher.
func walkDir(fs afero.Fs, dir string) ([]match.File, error) {
	var files []match.File

	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		content, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}

		files = append(files, match.File{
			Path:    filepath.ToSlash(rel),
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

