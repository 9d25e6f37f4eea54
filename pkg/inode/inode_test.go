package inode

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"

	"github.com/weberc2/easyfs/pkg/cache"
	"github.com/weberc2/easyfs/pkg/io"
	. "github.com/weberc2/easyfs/pkg/types"
)

// sequence hands out blocks counting up from 1; the device is always
// large enough that it never runs out.
type sequence struct{ next Block }

func (s *sequence) take(n Block) []Block {
	blocks := make([]Block, n)
	for i := range blocks {
		s.next++
		blocks[i] = s.next
	}
	return blocks
}

func newView(blocks Block) cache.View {
	return cache.New(cache.DefaultCapacity, nil).View(io.NewMemoryDevice(blocks))
}

func grow(
	t *testing.T,
	inode *DiskInode,
	size Byte,
	seq *sequence,
	view BlockView,
) []Block {
	t.Helper()
	blocks := seq.take(BlocksNeeded(inode, size))
	if err := IncreaseSize(inode, size, blocks, view); err != nil {
		t.Fatalf("IncreaseSize(%d): unexpected err: %v", size, err)
	}
	return blocks
}

func TestTotalBlocks(t *testing.T) {
	for _, tc := range []struct {
		name   string
		size   Byte
		wanted Block
	}{
		{"empty", 0, 0},
		{"one-byte", 1, 1},
		{"one-block", BlockSize, 1},
		{"one-block-plus-one", BlockSize + 1, 2},
		{"direct-full", 28 * BlockSize, 28},
		{"singly-first", 28*BlockSize + 1, 30},
		{"singly-full", 156 * BlockSize, 157},
		{"doubly-first", 156*BlockSize + 1, 160},
		{"doubly-first-inner-full", 284 * BlockSize, 287},
		{"doubly-second-inner", 285 * BlockSize, 289},
		{"max", MaxSize, 16670},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if found := TotalBlocks(tc.size); found != tc.wanted {
				t.Fatalf("wanted `%d`; found `%d`", tc.wanted, found)
			}
		})
	}
}

func TestIncreaseSize_Layout(t *testing.T) {
	view := newView(256)
	var (
		inode DiskInode
		seq   sequence
	)
	Initialize(&inode, FileTypeRegular)

	grow(t, &inode, 30*BlockSize, &seq, view)
	for i, block := range inode.DirectBlocks {
		if wanted := Block(i + 1); block != wanted {
			t.Fatalf("direct block `%d`: wanted `%d`; found `%d`", i, wanted, block)
		}
	}
	if inode.SinglyIndirectBlock != 29 {
		t.Fatalf(
			"singly indirect block: wanted `29`; found `%d`",
			inode.SinglyIndirectBlock,
		)
	}

	grow(t, &inode, 157*BlockSize, &seq, view)
	if inode.DoublyIndirectBlock != 158 {
		t.Fatalf(
			"doubly indirect block: wanted `158`; found `%d`",
			inode.DoublyIndirectBlock,
		)
	}

	for _, tc := range []struct {
		inner  Block
		wanted Block
	}{
		{0, 1},
		{27, 28},
		{28, 30},
		{29, 31},
		{30, 32},
		{155, 157},
		{156, 160},
	} {
		found, err := BlockID(&inode, tc.inner, view)
		if err != nil {
			t.Fatalf("BlockID(%d): unexpected err: %v", tc.inner, err)
		}
		if found != tc.wanted {
			t.Fatalf(
				"BlockID(%d): wanted `%d`; found `%d`",
				tc.inner,
				tc.wanted,
				found,
			)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		size Byte
	}{
		{"zero", 0},
		{"4-blocks", 4 * BlockSize},
		{"8.5-blocks", 8*BlockSize + BlockSize/2},
		{"100-blocks", 100 * BlockSize},
		{"70-and-a-seventh-blocks", 70*BlockSize + BlockSize/7},
		{"140-blocks", 140 * BlockSize},
		{"400-blocks", 400 * BlockSize},
		{"1000-blocks", 1000 * BlockSize},
		{"2000-blocks", 2000 * BlockSize},
	} {
		t.Run(tc.name, func(t *testing.T) {
			view := newView(2100)
			var (
				inode DiskInode
				seq   sequence
			)
			Initialize(&inode, FileTypeRegular)
			allocated := grow(t, &inode, tc.size, &seq, view)

			wanted := make([]byte, tc.size)
			rand.New(rand.NewSource(int64(tc.size))).Read(wanted)
			n, err := WriteAt(&inode, 0, wanted, view)
			if err != nil {
				t.Fatalf("WriteAt(): unexpected err: %v", err)
			}
			if n != len(wanted) {
				t.Fatalf("WriteAt(): wanted `%d`; found `%d`", len(wanted), n)
			}

			found := make([]byte, 233)
			var read []byte
			for offset := Byte(0); ; {
				n, err := ReadAt(&inode, offset, found, view)
				if err != nil {
					t.Fatalf("ReadAt(%d): unexpected err: %v", offset, err)
				}
				if n == 0 {
					break
				}
				read = append(read, found[:n]...)
				offset += Byte(n)
			}
			if !bytes.Equal(read, wanted) {
				t.Fatalf(
					"read back `%d` bytes that differ from the `%d` written",
					len(read),
					len(wanted),
				)
			}

			freed, err := ClearSize(&inode, view)
			if err != nil {
				t.Fatalf("ClearSize(): unexpected err: %v", err)
			}
			if Block(len(freed)) != TotalBlocks(tc.size) {
				t.Fatalf(
					"ClearSize(): wanted `%d` blocks; found `%d`",
					TotalBlocks(tc.size),
					len(freed),
				)
			}
			sort.Slice(freed, func(i, j int) bool { return freed[i] < freed[j] })
			for i := range freed {
				if freed[i] != allocated[i] {
					t.Fatalf(
						"ClearSize(): block `%d`: wanted `%d`; found `%d`",
						i,
						allocated[i],
						freed[i],
					)
				}
			}
			if inode.Size != 0 || inode.SinglyIndirectBlock != 0 ||
				inode.DoublyIndirectBlock != 0 || inode.DirectBlocks[0] != 0 {
				t.Fatalf("ClearSize(): inode not reset: `%+v`", inode)
			}
			if n, err := ReadAt(&inode, 0, found, view); err != nil || n != 0 {
				t.Fatalf("ReadAt() after clear: wanted `0`; found `%d` (err: %v)", n, err)
			}
		})
	}
}

func TestReadAt_ClampsToSize(t *testing.T) {
	view := newView(8)
	var (
		inode DiskInode
		seq   sequence
	)
	grow(t, &inode, 10, &seq, view)
	if _, err := WriteAt(&inode, 0, []byte("0123456789"), view); err != nil {
		t.Fatalf("WriteAt(): unexpected err: %v", err)
	}

	p := make([]byte, 8)
	n, err := ReadAt(&inode, 6, p, view)
	if err != nil {
		t.Fatalf("ReadAt(): unexpected err: %v", err)
	}
	if string(p[:n]) != "6789" {
		t.Fatalf("ReadAt(): wanted `6789`; found `%s`", p[:n])
	}
	if n, _ := ReadAt(&inode, 10, p, view); n != 0 {
		t.Fatalf("ReadAt(10): wanted `0`; found `%d`", n)
	}
}

func TestWriteAt_PastSizePanics(t *testing.T) {
	view := newView(8)
	var (
		inode DiskInode
		seq   sequence
	)
	grow(t, &inode, 10, &seq, view)
	defer func() {
		if recover() == nil {
			t.Fatal("WriteAt(): wanted panic; found none")
		}
	}()
	WriteAt(&inode, 5, []byte("0123456789"), view)
}

func TestIncreaseSize_WrongCountPanics(t *testing.T) {
	view := newView(8)
	var inode DiskInode
	defer func() {
		if recover() == nil {
			t.Fatal("IncreaseSize(): wanted panic; found none")
		}
	}()
	IncreaseSize(&inode, BlockSize+1, []Block{1}, view)
}
