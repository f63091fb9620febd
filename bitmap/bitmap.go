package bitmap

// Bitmap is an in-memory occupancy table with one bit per unit. Bit n
// lives in byte n/8 at position n%8.
type Bitmap struct {
	bits []byte
	max  uint64
}

func MkBitmap(max uint64) *Bitmap {
	return &Bitmap{
		bits: make([]byte, (max+7)/8),
		max:  max,
	}
}

func (b *Bitmap) Len() uint64 {
	return b.max
}

func (b *Bitmap) checkRange(n uint64) {
	if n >= b.max {
		panic("bitmap: out of range")
	}
}

func (b *Bitmap) Set(n uint64) {
	b.checkRange(n)
	b.bits[n/8] = b.bits[n/8] | (1 << (n % 8))
}

func (b *Bitmap) Clear(n uint64) {
	b.checkRange(n)
	b.bits[n/8] = b.bits[n/8] & ^(1 << (n % 8))
}

func (b *Bitmap) IsSet(n uint64) bool {
	b.checkRange(n)
	return b.bits[n/8]&(1<<(n%8)) != 0
}

// FindFree returns the first clear bit in [start, max), and false if all
// of them are set. Fully occupied bytes are skipped without testing bits.
func (b *Bitmap) FindFree(start uint64) (uint64, bool) {
	n := start
	for n < b.max {
		if n%8 == 0 && b.bits[n/8] == 0xff {
			n += 8
			continue
		}
		if !b.IsSet(n) {
			return n, true
		}
		n++
	}
	return 0, false
}

func popCnt(b byte) uint64 {
	var count uint64
	var x = b
	for i := uint64(0); i < 8; i++ {
		count += uint64(x & 1)
		x = x >> 1
	}
	return count
}

// NumSet counts set bits.
func (b *Bitmap) NumSet() uint64 {
	var count uint64
	for _, x := range b.bits {
		count += popCnt(x)
	}
	return count
}
