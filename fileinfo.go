package ar

import (
	"errors"
	"io/fs"
)

// Mode bits used in the mode field, as in <sys/stat.h>.
const (
	c_ISUID = 0o4000
	c_ISGID = 0o2000
	c_ISVTX = 0o1000
	c_ISREG = 0o100000
)

// FileInfoHeader creates a Header from fi, for a regular file. The owner is only populated on Unix
// systems.
func FileInfoHeader(fi fs.FileInfo) (*Header, error) {
	if !fi.Mode().IsRegular() {
		return nil, &ErrFileName{Name: fi.Name(), Err: errors.New("not a regular file")}
	}
	uid, gid := fileOwner(fi)
	return &Header{
		Name:    fi.Name(),
		ModTime: fi.ModTime(),
		Uid:     uid,
		Gid:     gid,
		Mode:    unixMode(fi.Mode()),
		Size:    fi.Size(),
	}, nil
}

func unixMode(m fs.FileMode) uint32 {
	mode := uint32(m.Perm()) | c_ISREG
	if m&fs.ModeSetuid != 0 {
		mode |= c_ISUID
	}
	if m&fs.ModeSetgid != 0 {
		mode |= c_ISGID
	}
	if m&fs.ModeSticky != 0 {
		mode |= c_ISVTX
	}
	return mode
}
