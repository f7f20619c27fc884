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

import "github.com/emberos/ember/pkg/riscv"

// userEntry is the one-shot privilege-transition trampoline. A fresh user
// process's synthetic switch frame names it as the return address, so it
// runs exactly once, on the first switch into the process: it points sepc
// at the user entry virtual address, arranges sstatus so the privileged
// return drops to user mode with interrupts re-enabled, and performs the
// return. The process never comes back here; later switches resume at its
// last suspension point.
func (k *Kernel) userEntry() {
	k.cpu.SetSepc(uint32(riscv.UserBase))
	// SPP clear selects user mode; SPIE re-enables interrupts across the
	// return.
	k.cpu.SetSstatus(riscv.SstatusSPIE)
	k.cpu.Sret()
}
