// Copyright 2025 The Ember Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memory implements the simulated physical memory of the machine: a
// single contiguous byte-backed region starting at the kernel load address,
// with a bump page allocator over the free pool. Memory is never reclaimed;
// the allocator tracks only a monotonically increasing cursor.
package memory

import (
	"encoding/binary"
	"fmt"

	"github.com/emberos/ember/pkg/halt"
	"github.com/emberos/ember/pkg/riscv"
)

// Memory is the physical memory of a machine.
//
// The layout is fixed: [Base, Base+KernelReserve) holds the kernel image,
// its text symbols and the per-process kernel stacks; [Base+KernelReserve,
// End) is the free page pool. Page tables, leaf tables and user image frames
// are all allocated from the pool and are therefore directly observable
// through the physical accessors.
type Memory struct {
	backing []byte

	// kernelCursor is the next unreserved byte in the kernel region.
	kernelCursor riscv.Addr

	// cursor is the physical address of the next free page. It only
	// advances; there is no free list.
	cursor riscv.Addr
}

// New returns a Memory of the given total size in bytes. The size must be a
// multiple of the page size and large enough to leave a non-empty free pool
// after the reserved kernel region.
func New(size uint32) (*Memory, error) {
	if size%riscv.PageSize != 0 {
		return nil, fmt.Errorf("memory size %#x is not a multiple of the page size", size)
	}
	if size <= riscv.KernelReserve {
		return nil, fmt.Errorf("memory size %#x leaves no free pages after the %#x-byte kernel region", size, uint32(riscv.KernelReserve))
	}
	// The physical range [KernelBase, KernelBase+size) must fit in a
	// 32-bit address space, End() included.
	if end := uint64(riscv.KernelBase) + uint64(size); end >= 1<<32 {
		return nil, fmt.Errorf("memory size %#x extends past the top of the 32-bit physical address space at base %#x", size, uint32(riscv.KernelBase))
	}
	return &Memory{
		backing:      make([]byte, size),
		kernelCursor: riscv.KernelBase,
		cursor:       riscv.KernelBase + riscv.KernelReserve,
	}, nil
}

// Base returns the lowest physical address.
func (m *Memory) Base() riscv.Addr {
	return riscv.KernelBase
}

// End returns the physical address one past the end of memory.
func (m *Memory) End() riscv.Addr {
	return riscv.KernelBase + riscv.Addr(len(m.backing))
}

// FreeStart returns the physical address of the first page of the free pool.
func (m *Memory) FreeStart() riscv.Addr {
	return riscv.KernelBase + riscv.KernelReserve
}

// AllocPages returns the physical address of n contiguous zeroed pages,
// advancing the allocation cursor. It halts the machine if the pool is
// exhausted; allocation failure is not recoverable.
func (m *Memory) AllocPages(n uint32) riscv.Addr {
	paddr := m.cursor
	next := paddr + riscv.Addr(n)*riscv.PageSize
	if next < paddr || next > m.End() {
		halt.Panicf("out of memory: %d page(s) requested at cursor %#x, memory ends at %#x", n, paddr, m.End())
	}
	m.cursor = next
	clear(m.slice(paddr, n*riscv.PageSize))
	return paddr
}

// ReserveKernel reserves n bytes in the kernel region, word-aligned, and
// returns their physical address. Used for per-process kernel stacks and
// text symbols. Halts if the region is exhausted.
func (m *Memory) ReserveKernel(n uint32) riscv.Addr {
	paddr := (m.kernelCursor + 3) &^ 3
	next := paddr + riscv.Addr(n)
	if next > m.FreeStart() {
		halt.Panicf("kernel region exhausted: %d byte(s) requested at %#x", n, paddr)
	}
	m.kernelCursor = next
	return paddr
}

// slice returns the backing bytes for [addr, addr+n). It panics on any
// access outside physical memory; the core never constructs such an address
// without a bug.
func (m *Memory) slice(addr riscv.Addr, n uint32) []byte {
	off := uint64(addr) - uint64(riscv.KernelBase)
	end := off + uint64(n)
	if addr < riscv.KernelBase || end > uint64(len(m.backing)) {
		panic(fmt.Sprintf("physical access [%#x, %#x) outside memory [%#x, %#x)", addr, uint64(addr)+uint64(n), riscv.KernelBase, m.End()))
	}
	return m.backing[off:end]
}

// Read32 returns the little-endian word at physical address addr.
func (m *Memory) Read32(addr riscv.Addr) uint32 {
	return binary.LittleEndian.Uint32(m.slice(addr, 4))
}

// Write32 stores the little-endian word v at physical address addr.
func (m *Memory) Write32(addr riscv.Addr, v uint32) {
	binary.LittleEndian.PutUint32(m.slice(addr, 4), v)
}

// ReadBytes fills b from physical memory starting at addr.
func (m *Memory) ReadBytes(addr riscv.Addr, b []byte) {
	copy(b, m.slice(addr, uint32(len(b))))
}

// WriteBytes stores b into physical memory starting at addr.
func (m *Memory) WriteBytes(addr riscv.Addr, b []byte) {
	copy(m.slice(addr, uint32(len(b))), b)
}
