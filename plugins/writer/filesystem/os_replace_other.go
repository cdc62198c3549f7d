//go:build !unix && !windows

package filesystem

import "os"

func replaceFile(tmpPath, dest string) error { return os.Rename(tmpPath, dest) }

func syncDir(dir string) error { return nil }
