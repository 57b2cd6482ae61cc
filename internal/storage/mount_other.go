//go:build !darwin && !linux

package storage

// mountType can't inspect mounts here; every path is treated as local.
func mountType(string) (string, error) {
	return "", nil
}
