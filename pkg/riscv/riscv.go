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

// Package riscv provides RV32 architecture constants and address arithmetic
// for the simulated machine: the Sv32 virtual address layout, CSR bit
// definitions, trap cause codes, and the physical memory map.
package riscv

// Addr is a 32-bit address, physical or virtual depending on context.
type Addr uint32

// Page geometry for Sv32.
const (
	PageShift = 12
	PageSize  = 1 << PageShift
	PageMask  = PageSize - 1

	// EntriesPerTable is the number of PTEs in one table at either level.
	EntriesPerTable = 1024
)

// Physical memory map of the simulated machine. The kernel image (and the
// per-process kernel stacks carved from it) sits at KernelBase; free RAM
// follows the reserved kernel region and extends to the configured end of
// memory. User images are mapped at UserBase, well below the kernel, so the
// two ranges can never collide in a page table.
const (
	// KernelBase is the load address of the kernel image and the bottom of
	// simulated physical memory.
	KernelBase Addr = 0x8020_0000

	// KernelReserve is the size of the region at KernelBase reserved for
	// the kernel image, its text symbols and the per-process kernel
	// stacks. The free RAM pool starts immediately after it.
	KernelReserve = 1 << 20

	// UserBase is the virtual address at which a process image is mapped.
	UserBase Addr = 0x0100_0000
)

// RoundDown returns the address rounded down to the nearest page boundary.
func (v Addr) RoundDown() Addr {
	return v &^ Addr(PageMask)
}

// RoundUp returns the address rounded up to the nearest page boundary. ok is
// true iff rounding up did not wrap around.
func (v Addr) RoundUp() (addr Addr, ok bool) {
	addr = (v + PageMask).RoundDown()
	ok = addr >= v
	return
}

// PageAligned returns true if v is aligned to a page boundary.
func (v Addr) PageAligned() bool {
	return v&PageMask == 0
}

// PFN returns the physical frame number containing v.
func (v Addr) PFN() uint32 {
	return uint32(v) >> PageShift
}

// VPN1 returns the level-1 (root) page table index for virtual address v:
// bits 22-31.
func (v Addr) VPN1() uint32 {
	return (uint32(v) >> 22) & (EntriesPerTable - 1)
}

// VPN0 returns the level-0 (leaf) page table index for virtual address v:
// bits 12-21.
func (v Addr) VPN0() uint32 {
	return (uint32(v) >> PageShift) & (EntriesPerTable - 1)
}
