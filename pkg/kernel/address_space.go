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

package kernel

import (
	"github.com/emberos/ember/pkg/pagetables"
	"github.com/emberos/ember/pkg/riscv"
)

// buildAddressSpace constructs a process's page tables.
//
// The entire physical range, kernel region and free pool alike, is
// identity-mapped read/write/execute into every address space: a trap taken
// while a user page table is active must be able to execute kernel code
// without switching tables first. If an image is supplied it is copied
// page by page into fresh frames mapped at the fixed user base with
// user-accessible permission, the final partial page zero-padded.
func (k *Kernel) buildAddressSpace(image []byte) *pagetables.PageTables {
	pt := pagetables.New(k.mem)

	for pa := k.mem.Base(); pa < k.mem.End(); pa += riscv.PageSize {
		pt.Map(pa, pa, pagetables.MapOpts{AccessType: riscv.ReadWriteExecute})
	}

	for off := 0; off < len(image); off += riscv.PageSize {
		page := k.mem.AllocPages(1)
		n := len(image) - off
		if n > riscv.PageSize {
			n = riscv.PageSize
		}
		// The frame beyond the copy is already zero: AllocPages clears it.
		k.mem.WriteBytes(page, image[off:off+n])
		pt.Map(riscv.UserBase+riscv.Addr(off), page, pagetables.MapOpts{
			AccessType: riscv.ReadWriteExecute,
			User:       true,
		})
	}
	return pt
}
