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

// Package pagetables provides two-level Sv32 page tables, stored in the
// simulated physical memory they describe.
//
// The root (level-1) table is allocated when the PageTables are created;
// leaf (level-0) tables are allocated lazily, the first time a virtual
// address in their range is mapped. There is no unmap: mappings are
// write-once for the lifetime of the machine.
package pagetables

import (
	"fmt"

	"github.com/emberos/ember/pkg/memory"
	"github.com/emberos/ember/pkg/riscv"
)

// PageTables is a set of Sv32 page tables, exclusively owned by one process.
type PageTables struct {
	mem *memory.Memory

	// root is the physical address of the level-1 table.
	root riscv.Addr
}

// New returns new PageTables with a zeroed root table allocated from mem.
func New(mem *memory.Memory) *PageTables {
	return &PageTables{
		mem:  mem,
		root: mem.AllocPages(1),
	}
}

// Root returns the physical address of the level-1 table.
func (p *PageTables) Root() riscv.Addr {
	return p.root
}

// SATP returns the satp value selecting these tables under Sv32.
func (p *PageTables) SATP() uint32 {
	return riscv.SatpSv32For(p.root)
}

// entry returns the PTE at index i of the table at physical address table.
func (p *PageTables) entry(table riscv.Addr, i uint32) PTE {
	return PTE(p.mem.Read32(table + riscv.Addr(i)*4))
}

// setEntry stores pte at index i of the table at physical address table.
func (p *PageTables) setEntry(table riscv.Addr, i uint32, pte PTE) {
	p.mem.Write32(table+riscv.Addr(i)*4, uint32(pte))
}

// Map installs a mapping of the single page at virtual address va to the
// physical page at pa, allocating the leaf table if the level-1 entry is not
// yet valid. Both addresses must be page-aligned.
func (p *PageTables) Map(va, pa riscv.Addr, opts MapOpts) {
	if !va.PageAligned() || !pa.PageAligned() {
		panic(fmt.Sprintf("unaligned mapping %#x -> %#x", va, pa))
	}
	l1 := p.entry(p.root, va.VPN1())
	if !l1.Valid() {
		leaf := p.mem.AllocPages(1)
		l1 = makePointer(leaf)
		p.setEntry(p.root, va.VPN1(), l1)
	}
	p.setEntry(l1.Address(), va.VPN0(), makeLeaf(pa, opts))
}

// Lookup walks the tables for virtual address va. If a valid leaf mapping
// covers va, it returns the translated physical address (with the page
// offset of va applied), the mapping options and true.
func (p *PageTables) Lookup(va riscv.Addr) (riscv.Addr, MapOpts, bool) {
	l1 := p.entry(p.root, va.VPN1())
	if !l1.pointer() {
		return 0, MapOpts{}, false
	}
	l0 := p.entry(l1.Address(), va.VPN0())
	if !l0.Valid() {
		return 0, MapOpts{}, false
	}
	return l0.Address() + (va & riscv.PageMask), l0.Opts(), true
}
