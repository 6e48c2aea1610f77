package emu

import (
	"encoding/binary"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// WordBytes is the size of a memory word in bytes.
const WordBytes = 8

// DefaultMemoryWords is the default data memory capacity in words.
const DefaultMemoryWords = 4096

// MemoryWordGranule is the granularity the capacity must be a multiple of,
// so the backing storage is allocated in whole 4 KiB units.
const MemoryWordGranule = 4096 / WordBytes

// Memory is a word-addressed data memory backed by an Akita storage.
// Addresses are integers; each address names one 64-bit word. Addresses
// are reduced modulo the capacity, so every access is defined.
type Memory struct {
	storage *mem.Storage
	words   uint64
}

// NewMemory creates a memory with DefaultMemoryWords words.
func NewMemory() *Memory {
	return NewMemoryWithWords(DefaultMemoryWords)
}

// NewMemoryWithWords creates a memory holding the given number of words.
// A zero size selects DefaultMemoryWords; other sizes are rounded up to a
// multiple of MemoryWordGranule.
func NewMemoryWithWords(words uint64) *Memory {
	if words == 0 {
		words = DefaultMemoryWords
	}
	if rem := words % MemoryWordGranule; rem != 0 {
		words += MemoryWordGranule - rem
	}
	return &Memory{
		storage: mem.NewStorage(words * WordBytes),
		words:   words,
	}
}

// Words returns the capacity in words.
func (m *Memory) Words() uint64 {
	return m.words
}

// Index maps an address to its word slot.
func (m *Memory) Index(addr int64) uint64 {
	n := int64(m.words)
	idx := addr % n
	if idx < 0 {
		idx += n
	}
	return uint64(idx)
}

// Read returns the word at addr.
func (m *Memory) Read(addr int64) int64 {
	data, err := m.storage.Read(m.Index(addr)*WordBytes, WordBytes)
	if err != nil {
		panic(err)
	}
	return int64(binary.LittleEndian.Uint64(data))
}

// Write stores value at addr.
func (m *Memory) Write(addr int64, value int64) {
	data := make([]byte, WordBytes)
	binary.LittleEndian.PutUint64(data, uint64(value))
	if err := m.storage.Write(m.Index(addr)*WordBytes, data); err != nil {
		panic(err)
	}
}

// Load writes an initial memory image.
func (m *Memory) Load(image map[int64]int64) {
	for addr, value := range image {
		m.Write(addr, value)
	}
}

// Reset clears every word to zero.
func (m *Memory) Reset() {
	m.storage = mem.NewStorage(m.words * WordBytes)
}

// NonZero returns every word whose value is not zero, keyed by slot index.
func (m *Memory) NonZero() map[int64]int64 {
	out := map[int64]int64{}
	for i := uint64(0); i < m.words; i++ {
		if v := m.Read(int64(i)); v != 0 {
			out[int64(i)] = v
		}
	}
	return out
}
