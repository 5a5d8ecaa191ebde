package heap

import "encoding/binary"

// NewUint64 allocates an aligned 8-byte cell on the heap, stores v in it
// and returns the cell's address.
func NewUint64(a *Arena, v uint64) (uintptr, error) {
	addr, err := a.Allocate(8, 8)
	if err != nil {
		return 0, err
	}
	cell, err := a.Bytes(addr, 8)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint64(cell, v)
	return addr, nil
}

// LoadUint64 reads the 8-byte cell at addr.
func LoadUint64(a *Arena, addr uintptr) (uint64, error) {
	cell, err := a.Bytes(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(cell), nil
}
