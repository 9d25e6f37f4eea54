package file

import "strings"

// OpenFlags selects the access mode and creation behavior of `Open`.
type OpenFlags uint32

const (
	RDONLY OpenFlags = 0
	WRONLY OpenFlags = 1 << 0
	RDWR   OpenFlags = 1 << 1
	CREATE OpenFlags = 1 << 9
	TRUNC  OpenFlags = 1 << 10
)

func (flags OpenFlags) Has(other OpenFlags) bool { return flags&other == other }

// ReadWrite reports whether `flags` open a file for reading and for
// writing. No flags at all means read-only, WRONLY means write-only, and
// anything else means both.
func (flags OpenFlags) ReadWrite() (readable, writable bool) {
	switch {
	case flags == 0:
		return true, false
	case flags.Has(WRONLY):
		return false, true
	default:
		return true, true
	}
}

func (flags OpenFlags) String() string {
	if flags == RDONLY {
		return "RDONLY"
	}
	var parts []string
	for _, flag := range []struct {
		flag OpenFlags
		name string
	}{
		{WRONLY, "WRONLY"},
		{RDWR, "RDWR"},
		{CREATE, "CREATE"},
		{TRUNC, "TRUNC"},
	} {
		if flags.Has(flag.flag) {
			parts = append(parts, flag.name)
		}
	}
	return strings.Join(parts, "|")
}
