package shm

import (
	"sync/atomic"
	"unsafe"
)

// Byte layout of the shared region:
//
//	[0, headerSize)                              Header
//	[headerSize, headerSize+countsSize)          active counters, 2 uint32 per entry
//	[countsEnd, countsEnd+numSlots*recordSize)    per-child records
//
// Every field is a fixed-width integer at a fixed offset, never a pointer,
// so the byte layout is stable and meaningful to every process that maps
// this region regardless of where in its own address space the mapping
// lands (spec.md 6: "implementations must pick a stable layout if the
// supervisor is a separate binary").
const (
	offTotalDone  = 0
	offSuccesses  = 8
	offFailures   = 16
	offTableLock  = 24
	headerSize    = 32
	countsPerEnt  = 2 // native + secondary
	countsWidth   = 4 // bytes per counter
)

const (
	recOffNr        = 0
	recOffA         = 8
	recOffDo32Bit   = 56
	recOffTvSec     = 64
	recOffTvNsec    = 72
	recOffOpNr      = 80
	recOffErrnoPost = 88
	recOffRetval    = 96
	recOffState     = 104
	recOffLock      = 108
	recordSize      = 112
)

// Record states, matching spec.md 4.4.
const (
	StateUnused uint32 = iota
	StatePrep
	StateBefore
	StateAfter
	StateDone
	StateGoingAway
)

func loadU32(buf []byte, off int) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&buf[off])))
}

func storeU32(buf []byte, off int, v uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&buf[off])), v)
}

func casU32(buf []byte, off int, old, new uint32) bool {
	return atomic.CompareAndSwapUint32((*uint32)(unsafe.Pointer(&buf[off])), old, new)
}

func loadU64(buf []byte, off int) uint64 {
	return atomic.LoadUint64((*uint64)(unsafe.Pointer(&buf[off])))
}

func storeU64(buf []byte, off int, v uint64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&buf[off])), v)
}

func addU64(buf []byte, off int, delta uint64) uint64 {
	return atomic.AddUint64((*uint64)(unsafe.Pointer(&buf[off])), delta)
}

func loadI64(buf []byte, off int) int64 {
	return atomic.LoadInt64((*int64)(unsafe.Pointer(&buf[off])))
}

func storeI64(buf []byte, off int, v int64) {
	atomic.StoreInt64((*int64)(unsafe.Pointer(&buf[off])), v)
}

func loadI32(buf []byte, off int) int32 {
	return atomic.LoadInt32((*int32)(unsafe.Pointer(&buf[off])))
}

func storeI32(buf []byte, off int, v int32) {
	atomic.StoreInt32((*int32)(unsafe.Pointer(&buf[off])), v)
}

// layout computes the byte offsets and total size for a region holding
// numEntries table entries and numSlots per-child records.
type layout struct {
	countsOffset  int
	countsSize    int
	recordsOffset int
	totalSize     int
}

func computeLayout(numEntries, numSlots int) layout {
	countsSize := numEntries * countsPerEnt * countsWidth
	recordsOffset := headerSize + countsSize
	return layout{
		countsOffset:  headerSize,
		countsSize:    countsSize,
		recordsOffset: recordsOffset,
		totalSize:     recordsOffset + numSlots*recordSize,
	}
}
