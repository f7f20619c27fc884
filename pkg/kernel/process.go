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
	"fmt"

	"github.com/emberos/ember/pkg/pagetables"
	"github.com/emberos/ember/pkg/riscv"
)

// ProcessID is a process identifier. The idle process is 0; every other
// process is its slot index plus one, so identifiers of real runnable
// processes are strictly positive.
type ProcessID int32

// String returns a decimal representation of the ProcessID.
func (id ProcessID) String() string {
	return fmt.Sprintf("%d", int32(id))
}

// ProcessState is the lifecycle state of a process table slot.
type ProcessState int

const (
	// ProcessUnused marks a free slot.
	ProcessUnused ProcessState = iota

	// ProcessRunnable marks a live process. There are no further states:
	// processes are never blocked, terminated or reclaimed.
	ProcessRunnable
)

// String implements fmt.Stringer.
func (s ProcessState) String() string {
	switch s {
	case ProcessUnused:
		return "unused"
	case ProcessRunnable:
		return "runnable"
	default:
		return fmt.Sprintf("ProcessState(%d)", int(s))
	}
}

// Process is a process control block, one per table slot.
type Process struct {
	// id is the process identifier. Assigned at creation; immutable
	// afterwards.
	id ProcessID

	// state is ProcessUnused until the slot is claimed, ProcessRunnable
	// forever after.
	state ProcessState

	// sp is the saved kernel stack pointer at the moment the process last
	// stopped running, addressing the switch frame in simulated memory.
	// Owned exclusively by the scheduler and the context switch.
	sp riscv.Addr

	// pt is the process's exclusively-owned page tables. Every process,
	// the idle process included, has its own, with identical kernel
	// mappings duplicated into each.
	pt *pagetables.PageTables

	// stackBase and stackTop delimit the process's kernel stack in the
	// reserved kernel region. stackTop is installed into sscratch
	// whenever the process becomes current.
	stackBase riscv.Addr
	stackTop  riscv.Addr

	// resume releases the parked goroutine backing this context. started
	// is false until the first switch into the process, which dispatches
	// the entry point from the synthetic frame instead.
	resume  chan struct{}
	started bool
}

// ID returns the process identifier.
func (p *Process) ID() ProcessID {
	return p.id
}

// State returns the process state.
func (p *Process) State() ProcessState {
	return p.state
}

// PageTables returns the process's page tables.
func (p *Process) PageTables() *pagetables.PageTables {
	return p.pt
}

// KernelStackTop returns the top of the process's kernel stack.
func (p *Process) KernelStackTop() riscv.Addr {
	return p.stackTop
}

// SavedSP returns the saved stack pointer. Meaningful only while the
// process is not current.
func (p *Process) SavedSP() riscv.Addr {
	return p.sp
}

// CreateProcess claims the first unused process table slot and initializes
// it: a fresh address space with the full kernel range identity-mapped (and
// the image mapped at the user base, if one is supplied), a kernel stack,
// and a synthetic switch frame whose return address is the user trampoline
// for image processes and a zero placeholder otherwise.
//
// There is no free-slot recovery: exhausting the table halts the machine.
func (k *Kernel) CreateProcess(image []byte) *Process {
	var p *Process
	var slot int
	for i := range k.procs {
		if k.procs[i].state == ProcessUnused {
			p = &k.procs[i]
			slot = i
			break
		}
	}
	if p == nil {
		k.halt("no free process slots")
	}

	p.stackBase = k.mem.ReserveKernel(KernelStackSize)
	p.stackTop = p.stackBase + KernelStackSize
	p.pt = k.buildAddressSpace(image)

	// The synthetic frame must match, word for word, what switchContext
	// pops: twelve callee-saved registers and then the return address.
	frame := switchFrame{}
	if image != nil {
		frame.RA = uint32(k.trampoline)
	}
	p.sp = k.pushFrame(p.stackTop, &frame)

	p.id = ProcessID(slot + 1)
	p.state = ProcessRunnable
	p.resume = make(chan struct{})
	return p
}

// CreateKernelThread creates a process that begins executing kernel code at
// entry directly, skipping the user trampoline: the return-address slot of
// the synthetic frame, at the fixed offset past the twelve saved words, is
// patched with entry's text address.
func (k *Kernel) CreateKernelThread(entry func()) *Process {
	p := k.CreateProcess(nil)
	addr := k.registerText(entry)
	k.mem.Write32(p.sp+switchFrameRAOffset, uint32(addr))
	return p
}
