//go:build unix

package filesystem

import (
	"golang.org/x/sys/unix"
)

// replaceFile: 同目录 rename(2)，POSIX 保证对目标路径的原子替换。
func replaceFile(tmpPath, dest string) error {
	return unix.Rename(tmpPath, dest)
}

// syncDir 对父目录 fsync，使 rename 的目录项变更落盘（最佳努力）。
func syncDir(dir string) error {
	fd, err := unix.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return unix.Fsync(fd)
}
