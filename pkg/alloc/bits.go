package alloc

import "math/bits"

func bytesFirstZero(bytes []byte) (int, uint8, bool) {
	for i, byt := range bytes {
		if byt != 0xff {
			return i, byteFirstZero(byt), true
		}
	}
	return 0, 0, false
}

// byteFirstZero is the lowest-order clear bit.
func byteFirstZero(byt byte) uint8 {
	return uint8(bits.TrailingZeros8(^byt))
}

func byteIsZero(byt byte, bit uint8) bool {
	return byt&(1<<bit) == 0
}

func byteSetHigh(byt byte, bit uint8) byte {
	return byt | (1 << bit)
}

func byteSetLow(byt byte, bit uint8) byte {
	return byt &^ (1 << bit)
}

func byteOnes(byt byte) int { return bits.OnesCount8(byt) }
