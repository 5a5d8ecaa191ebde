package pong

import "encoding/binary"

// history is a fixed ring of the player's recent paddle positions, stored
// as little-endian 64-bit cells.
type history struct {
	cells []byte
	n     int
	next  int
}

func newHistory(n int, alloc Allocator) (*history, error) {
	size := uintptr(n * 8)
	var cells []byte
	if alloc == nil {
		cells = make([]byte, size)
	} else {
		addr, err := alloc.Allocate(size, 8)
		if err != nil {
			return nil, err
		}
		cells, err = alloc.Bytes(addr, size)
		if err != nil {
			return nil, err
		}
	}
	return &history{cells: cells, n: n}, nil
}

// push records y, overwriting the oldest entry.
func (h *history) push(y int) {
	binary.LittleEndian.PutUint64(h.cells[h.next*8:], uint64(int64(y)))
	h.next = (h.next + 1) % h.n
}

// oldest returns the entry that the next push will overwrite.
func (h *history) oldest() int {
	return int(int64(binary.LittleEndian.Uint64(h.cells[h.next*8:])))
}

// fill sets every entry to y.
func (h *history) fill(y int) {
	for i := 0; i < h.n; i++ {
		binary.LittleEndian.PutUint64(h.cells[i*8:], uint64(int64(y)))
	}
	h.next = 0
}
