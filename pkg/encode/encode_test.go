package encode

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/uuid"
	. "github.com/weberc2/easyfs/pkg/types"
)

func TestEncodeSuperblock(t *testing.T) {
	sb := Superblock{
		TotalBlocks:       4096,
		InodeBitmapBlocks: 1,
		InodeAreaBlocks:   1024,
		DataBitmapBlocks:  1,
		DataAreaBlocks:    3069,
		VolumeID:          uuid.MustParse("3d3a6a4e-0f2b-4b1e-9c57-6be86f2c8d11"),
	}

	var b [BlockSize]byte
	EncodeSuperblock(&sb, &b)

	for _, tc := range []struct {
		name   string
		offset int
		wanted uint32
	}{
		{"magic", 0, SuperblockMagic},
		{"total", 4, 4096},
		{"inode bitmap", 8, 1},
		{"inode area", 12, 1024},
		{"data bitmap", 16, 1},
		{"data area", 20, 3069},
	} {
		t.Run(tc.name, func(t *testing.T) {
			found := binary.LittleEndian.Uint32(b[tc.offset:])
			if found != tc.wanted {
				t.Fatalf("wanted `%d`; found `%d`", tc.wanted, found)
			}
		})
	}

	var decoded Superblock
	if err := DecodeSuperblock(&decoded, &b); err != nil {
		t.Fatalf("DecodeSuperblock(): unexpected err: %v", err)
	}
	if decoded != sb {
		t.Fatalf("DecodeSuperblock(): wanted `%+v`; found `%+v`", sb, decoded)
	}
}

func TestDecodeSuperblock_Errors(t *testing.T) {
	valid := Superblock{
		TotalBlocks:       100,
		InodeBitmapBlocks: 1,
		InodeAreaBlocks:   80,
		DataBitmapBlocks:  1,
		DataAreaBlocks:    17,
	}

	type testCase struct {
		name   string
		mangle func(b *[BlockSize]byte)
		wanted error
	}

	for _, tc := range []testCase{{
		name:   "zeroed",
		mangle: func(b *[BlockSize]byte) { *b = [BlockSize]byte{} },
		wanted: BadMagicErr,
	}, {
		name: "wrong-total",
		mangle: func(b *[BlockSize]byte) {
			binary.LittleEndian.PutUint32(b[4:], 101)
		},
		wanted: CorruptSuperblockErr,
	}, {
		name: "no-data-bitmap",
		mangle: func(b *[BlockSize]byte) {
			binary.LittleEndian.PutUint32(b[16:], 0)
			binary.LittleEndian.PutUint32(b[20:], 18)
		},
		wanted: CorruptSuperblockErr,
	}} {
		t.Run(tc.name, func(t *testing.T) {
			var b [BlockSize]byte
			EncodeSuperblock(&valid, &b)
			tc.mangle(&b)

			decoded := Superblock{TotalBlocks: 7}
			err := DecodeSuperblock(&decoded, &b)
			if !errors.Is(err, tc.wanted) {
				t.Fatalf("wanted `%v`; found `%v`", tc.wanted, err)
			}
			if decoded.TotalBlocks != 7 {
				t.Fatalf("superblock modified on error: `%+v`", decoded)
			}
		})
	}

	var b [BlockSize]byte
	binary.LittleEndian.PutUint32(b[:], 0xdeadbeef)
	var badMagic ErrBadMagic
	err := DecodeSuperblock(&Superblock{}, &b)
	if !errors.As(err, &badMagic) {
		t.Fatalf("wanted `ErrBadMagic`; found `%v`", err)
	}
	if badMagic.Found != 0xdeadbeef {
		t.Fatalf("wanted `0xdeadbeef`; found `%#x`", badMagic.Found)
	}
}

func TestEncodeInode(t *testing.T) {
	inode := DiskInode{
		Size:                70 * 512,
		SinglyIndirectBlock: 900,
		DoublyIndirectBlock: 901,
		FileType:            FileTypeDir,
	}
	for i := range inode.DirectBlocks {
		inode.DirectBlocks[i] = Block(100 + i)
	}

	var b [InodeSize]byte
	EncodeInode(&inode, &b)

	for _, tc := range []struct {
		name   string
		offset int
		wanted uint32
	}{
		{"size", 0, 70 * 512},
		{"direct-0", 4, 100},
		{"direct-27", 112, 127},
		{"singly", 116, 900},
		{"doubly", 120, 901},
		{"type", 124, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			found := binary.LittleEndian.Uint32(b[tc.offset:])
			if found != tc.wanted {
				t.Fatalf("wanted `%d`; found `%d`", tc.wanted, found)
			}
		})
	}

	var decoded DiskInode
	if err := DecodeInode(&decoded, &b); err != nil {
		t.Fatalf("DecodeInode(): unexpected err: %v", err)
	}
	if decoded != inode {
		t.Fatalf("DecodeInode(): wanted `%+v`; found `%+v`", inode, decoded)
	}

	binary.LittleEndian.PutUint32(b[124:], 7)
	if err := DecodeInode(&decoded, &b); !errors.Is(err, InvalidFileTypeErr) {
		t.Fatalf("wanted `%v`; found `%v`", InvalidFileTypeErr, err)
	}
}

func TestEncodeDirEntry(t *testing.T) {
	var b [DirEntrySize]byte
	for i := range b {
		b[i] = 0xff
	}
	if err := EncodeDirEntry(&DirEntry{Name: "fantastic", Ino: 9}, &b); err != nil {
		t.Fatalf("EncodeDirEntry(): unexpected err: %v", err)
	}
	if b[9] != 0 || b[27] != 0 {
		t.Fatalf("name padding: wanted NUL; found `%#x`, `%#x`", b[9], b[27])
	}
	if ino := binary.LittleEndian.Uint32(b[28:]); ino != 9 {
		t.Fatalf("inode number: wanted `9`; found `%d`", ino)
	}

	var decoded DirEntry
	DecodeDirEntry(&decoded, &b)
	if decoded.Name != "fantastic" || decoded.Ino != 9 {
		t.Fatalf("wanted `{fantastic 9}`; found `%+v`", decoded)
	}

	longest := "abcdefghijklmnopqrstuvwxyz0"
	if err := EncodeDirEntry(&DirEntry{Name: longest}, &b); err != nil {
		t.Fatalf("EncodeDirEntry(27 bytes): unexpected err: %v", err)
	}
	DecodeDirEntry(&decoded, &b)
	if decoded.Name != longest {
		t.Fatalf("wanted `%s`; found `%s`", longest, decoded.Name)
	}

	err := EncodeDirEntry(&DirEntry{Name: longest + "1"}, &b)
	if !errors.Is(err, NameTooLongErr) {
		t.Fatalf("wanted `%v`; found `%v`", NameTooLongErr, err)
	}
}
