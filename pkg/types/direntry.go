package types

const (
	// DirEntryNameSize is the width of the on-disk name field. The final
	// byte is always NUL, so names are at most `NameLengthLimit` bytes.
	DirEntryNameSize Byte = 28
	NameLengthLimit       = int(DirEntryNameSize) - 1
	DirEntrySize     Byte = DirEntryNameSize + 4
)

type DirEntry struct {
	Name string
	Ino  Ino
}
