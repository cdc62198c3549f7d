//go:build windows

package filesystem

import (
	"golang.org/x/sys/windows"
)

// replaceFile: MoveFileEx(REPLACE_EXISTING|WRITE_THROUGH)，目标存在时直接替换。
func replaceFile(tmpPath, dest string) error {
	from, err := windows.UTF16PtrFromString(tmpPath)
	if err != nil {
		return err
	}
	to, err := windows.UTF16PtrFromString(dest)
	if err != nil {
		return err
	}
	return windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH)
}

// syncDir 在 Windows 上为 no-op（目录句柄不支持 fsync）。
func syncDir(dir string) error { return nil }
