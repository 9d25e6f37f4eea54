package alloc

import (
	"errors"
	"testing"

	"github.com/weberc2/easyfs/pkg/cache"
	"github.com/weberc2/easyfs/pkg/io"
	. "github.com/weberc2/easyfs/pkg/types"
)

func newView(blocks Block) (cache.View, *io.MemoryDevice) {
	dev := io.NewMemoryDevice(blocks)
	return cache.New(4, nil).View(dev), dev
}

func TestBitmap_AllocSequence(t *testing.T) {
	view, dev := newView(3)
	bm := Bitmap{Start: 1, Blocks: 2, Limit: 2 * BitsPerBlock}

	for wanted := uint64(0); wanted < 4200; wanted++ {
		found, err := bm.Alloc(view)
		if err != nil {
			t.Fatalf("Bitmap.Alloc(): unexpected err: %v", err)
		}
		if found != wanted {
			t.Fatalf("Bitmap.Alloc(): wanted `%d`; found `%d`", wanted, found)
		}
	}

	if err := view.Sync(); err != nil {
		t.Fatalf("View.Sync(): unexpected err: %v", err)
	}
	data := dev.Bytes()
	if data[0] != 0 {
		t.Fatalf("block 0 byte 0: wanted `0`; found `%#x`", data[0])
	}
	if data[BlockSize] != 0xff {
		t.Fatalf("bitmap byte 0: wanted `0xff`; found `%#x`", data[BlockSize])
	}
	// 4200 - 4096 = 104 bits = 13 full bytes of the second block
	second := data[2*BlockSize:]
	if second[12] != 0xff || second[13] != 0 {
		t.Fatalf(
			"second bitmap block bytes 12-13: wanted `0xff 0x00`; found `%#x %#x`",
			second[12],
			second[13],
		)
	}
}

func TestBitmap_LowestBitFirst(t *testing.T) {
	view, dev := newView(1)
	bm := Bitmap{Start: 0, Blocks: 1, Limit: BitsPerBlock}
	for i := 0; i < 3; i++ {
		if _, err := bm.Alloc(view); err != nil {
			t.Fatalf("Bitmap.Alloc(): unexpected err: %v", err)
		}
	}
	if err := view.Sync(); err != nil {
		t.Fatalf("View.Sync(): unexpected err: %v", err)
	}
	if found := dev.Bytes()[0]; found != 0b0000_0111 {
		t.Fatalf("bitmap byte: wanted `0b111`; found `%#b`", found)
	}
}

func TestBitmap_FreedIndicesComeBackFirst(t *testing.T) {
	const n = 100
	view, _ := newView(1)
	bm := Bitmap{Start: 0, Blocks: 1, Limit: BitsPerBlock}

	for i := 0; i < n; i++ {
		if _, err := bm.Alloc(view); err != nil {
			t.Fatalf("Bitmap.Alloc(): unexpected err: %v", err)
		}
	}
	for i := uint64(0); i < n; i += 2 {
		if err := bm.Free(view, i); err != nil {
			t.Fatalf("Bitmap.Free(%d): unexpected err: %v", i, err)
		}
	}
	for i := uint64(0); i < n/2; i++ {
		found, err := bm.Alloc(view)
		if err != nil {
			t.Fatalf("Bitmap.Alloc(): unexpected err: %v", err)
		}
		if wanted := 2 * i; found != wanted {
			t.Fatalf("Bitmap.Alloc(): wanted `%d`; found `%d`", wanted, found)
		}
	}
	found, err := bm.Alloc(view)
	if err != nil {
		t.Fatalf("Bitmap.Alloc(): unexpected err: %v", err)
	}
	if found != n {
		t.Fatalf("Bitmap.Alloc(): wanted `%d`; found `%d`", n, found)
	}
}

func TestBitmap_Limit(t *testing.T) {
	view, _ := newView(1)
	bm := Bitmap{Start: 0, Blocks: 1, Limit: 10}
	for i := 0; i < 10; i++ {
		if _, err := bm.Alloc(view); err != nil {
			t.Fatalf("Bitmap.Alloc(): unexpected err: %v", err)
		}
	}
	if _, err := bm.Alloc(view); !errors.Is(err, OutOfSpaceErr) {
		t.Fatalf("Bitmap.Alloc(): wanted `%v`; found `%v`", OutOfSpaceErr, err)
	}

	used, err := bm.Used(view)
	if err != nil {
		t.Fatalf("Bitmap.Used(): unexpected err: %v", err)
	}
	if used != 10 {
		t.Fatalf("Bitmap.Used(): wanted `10`; found `%d`", used)
	}

	if err := bm.Free(view, 3); err != nil {
		t.Fatalf("Bitmap.Free(): unexpected err: %v", err)
	}
	set, err := bm.IsSet(view, 3)
	if err != nil {
		t.Fatalf("Bitmap.IsSet(): unexpected err: %v", err)
	}
	if set {
		t.Fatal("Bitmap.IsSet(3): wanted `false`; found `true`")
	}
	if found, err := bm.Alloc(view); err != nil || found != 3 {
		t.Fatalf("Bitmap.Alloc(): wanted `3`; found `%d` (err: %v)", found, err)
	}
}

func TestBitmap_DoubleFreePanics(t *testing.T) {
	view, _ := newView(1)
	bm := Bitmap{Start: 0, Blocks: 1, Limit: BitsPerBlock}
	defer func() {
		if recover() == nil {
			t.Fatal("Bitmap.Free(): wanted panic; found none")
		}
	}()
	bm.Free(view, 5)
}
