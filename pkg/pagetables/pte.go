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

package pagetables

import "github.com/emberos/ember/pkg/riscv"

// Sv32 PTE bits.
const (
	pteValid   uint32 = 1 << 0
	pteRead    uint32 = 1 << 1
	pteWrite   uint32 = 1 << 2
	pteExecute uint32 = 1 << 3
	pteUser    uint32 = 1 << 4

	// ptePFNShift is the position of the physical frame number within a
	// PTE: entry = pfn<<10 | flags.
	ptePFNShift = 10
)

// MapOpts are the options to Map.
type MapOpts struct {
	// AccessType defines the permission bits attached to the mapping.
	AccessType riscv.AccessType

	// User indicates the mapping is accessible in user mode.
	User bool
}

// PTE is a single Sv32 page table entry at either level.
type PTE uint32

// Valid returns true iff the entry is valid.
func (p PTE) Valid() bool {
	return uint32(p)&pteValid != 0
}

// Address returns the physical address contained in the entry. The entry
// must be valid.
func (p PTE) Address() riscv.Addr {
	return riscv.Addr(uint32(p)>>ptePFNShift) << riscv.PageShift
}

// Opts returns the options embedded in the entry.
func (p PTE) Opts() MapOpts {
	v := uint32(p)
	return MapOpts{
		AccessType: riscv.AccessType{
			Read:    v&pteRead != 0,
			Write:   v&pteWrite != 0,
			Execute: v&pteExecute != 0,
		},
		User: v&pteUser != 0,
	}
}

// pointer returns true iff the entry is a valid non-leaf entry, pointing to
// a next-level table. In Sv32 an entry with no R/W/X bits is a pointer.
func (p PTE) pointer() bool {
	return p.Valid() && uint32(p)&(pteRead|pteWrite|pteExecute) == 0
}

// makeLeaf returns a leaf entry mapping the page at physical address addr
// with the given options.
func makeLeaf(addr riscv.Addr, opts MapOpts) PTE {
	v := addr.PFN()<<ptePFNShift | pteValid
	if opts.AccessType.Read {
		v |= pteRead
	}
	if opts.AccessType.Write {
		v |= pteWrite
	}
	if opts.AccessType.Execute {
		v |= pteExecute
	}
	if opts.User {
		v |= pteUser
	}
	return PTE(v)
}

// makePointer returns a non-leaf entry pointing to the next-level table at
// physical address addr.
func makePointer(addr riscv.Addr) PTE {
	return PTE(addr.PFN()<<ptePFNShift | pteValid)
}
