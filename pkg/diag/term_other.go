//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package diag

func isTerminal(fd int) bool {
	return false
}
