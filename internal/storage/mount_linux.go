//go:build linux

package storage

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// statfs(2) magic numbers for network mounts.
var linuxRemoteMagic = map[uint32]string{
	unix.NFS_SUPER_MAGIC: "nfs",
	unix.SMB_SUPER_MAGIC: "smbfs",
	unix.AFS_SUPER_MAGIC: "afs",
	0xFF534D42:           "cifs",
	0xFE534D42:           "smb2",
}

func mountType(dir string) (string, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return "", fmt.Errorf("statfs: %w", err)
	}
	// f_type is 32 bits wide on every arch even where the field is int64.
	magic := uint32(st.Type)
	if name, ok := linuxRemoteMagic[magic]; ok {
		return name, nil
	}
	return fmt.Sprintf("0x%x", magic), nil
}
