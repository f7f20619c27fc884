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

// Package kernel implements the process- and memory-management core of the
// simulated machine: the fixed-capacity process table, per-process Sv32
// address spaces, the cooperative round-robin scheduler, the context switch
// and the trap dispatch.
//
// Execution is single-threaded in the machine's sense: exactly one process
// context runs at a time, and control moves only through Yield. Each
// process context is backed by a goroutine that is parked whenever its
// process is not current; the context switch saves and restores the
// simulated callee-saved register set through the process kernel stacks in
// simulated memory, so the stack-frame layout contract between process
// creation and the switch is fully observable.
package kernel

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/emberos/ember/pkg/halt"
	"github.com/emberos/ember/pkg/hart"
	"github.com/emberos/ember/pkg/memory"
	"github.com/emberos/ember/pkg/riscv"
)

const (
	// ProcsMax is the capacity of the process table. Slot 0 is the idle
	// process; slot reuse is not supported, so at most ProcsMax processes
	// ever exist.
	ProcsMax = 8

	// KernelStackSize is the size of the per-process kernel stack, carved
	// from the reserved kernel region.
	KernelStackSize = 8192
)

// Kernel is the machine core. It owns the process table, the current
// process pointer and the kernel text symbol table. All scheduling state
// lives here rather than in package globals, so a Kernel is a
// self-contained machine.
type Kernel struct {
	mem *memory.Memory
	cpu *hart.CPU
	log logrus.FieldLogger

	// procs is the process table. Entries are addressed by slot; a
	// process's identifier is its slot index plus one, except the idle
	// process, which occupies slot 0 with identifier 0.
	procs [ProcsMax]Process

	// current is the running process. It is nil until Boot adopts the
	// calling goroutine as the idle process; from then on exactly one
	// process is current at any time.
	current *Process

	// text maps fake kernel text addresses to the Go functions standing
	// in for code at those addresses: the user trampoline, the trap
	// vector and kernel thread entry points.
	text map[riscv.Addr]func()

	// trampoline is the text address of the one-shot user-mode entry.
	trampoline riscv.Addr

	// vectorAddr is the text address installed into stvec.
	vectorAddr riscv.Addr

	// stop is closed when the machine halts, releasing every parked
	// process context so its goroutine can unwind.
	stop     chan struct{}
	stopOnce sync.Once
	stopErr  *halt.Error
}

// New returns a Kernel over the given memory and hart. The trap vector is
// installed immediately; it is the only binding between the hart and the
// kernel.
func New(mem *memory.Memory, cpu *hart.CPU, log logrus.FieldLogger) *Kernel {
	k := &Kernel{
		mem:  mem,
		cpu:  cpu,
		log:  log,
		text: make(map[riscv.Addr]func()),
		stop: make(chan struct{}),
	}
	k.trampoline = k.registerText(k.userEntry)
	// The vector needs an address for stvec but is entered by the hart,
	// never through a switch frame, so it stays out of the symbol table.
	k.vectorAddr = mem.ReserveKernel(4)
	cpu.InstallTrapVector(k.vectorAddr, k.handleTrap)
	return k
}

// Current returns the running process, or nil before scheduling starts.
func (k *Kernel) Current() *Process {
	return k.current
}

// Memory returns the machine's physical memory.
func (k *Kernel) Memory() *memory.Memory {
	return k.mem
}

// CPU returns the machine's hart.
func (k *Kernel) CPU() *hart.CPU {
	return k.cpu
}

// registerText assigns a kernel text address to fn and records it in the
// symbol table. The address is reserved in the kernel region so it can
// never collide with an allocated frame.
func (k *Kernel) registerText(fn func()) riscv.Addr {
	addr := k.mem.ReserveKernel(4)
	k.text[addr] = fn
	return addr
}

// handleTrap is the trap handler. Every trap is unexpected: the core
// implements no syscalls, page-fault recovery or timer interrupts, so any
// trap reaching the vector is fatal for the whole machine.
func (k *Kernel) handleTrap(f *hart.TrapFrame) {
	k.halt("unexpected trap scause=%#x (%v), stval=%#x, sepc=%#x", uint32(f.Cause), f.Cause, f.Tval, f.EPC)
}

// halt reports a fatal condition through the diagnostic sink and stops the
// machine. It does not return.
func (k *Kernel) halt(format string, args ...any) {
	e := &halt.Error{Reason: fmt.Sprintf(format, args...)}
	k.log.Error(e.Reason)
	k.shutdown(e)
	panic(e)
}

// shutdown records the halt reason and releases all parked contexts.
func (k *Kernel) shutdown(e *halt.Error) {
	k.stopOnce.Do(func() {
		k.stopErr = e
		close(k.stop)
	})
}

// Boot runs the fixed startup ritual: create the idle process and adopt the
// calling goroutine as its context, create one kernel thread per entry in
// threads, create a user process from image if one is supplied, then invoke
// the scheduler. Boot blocks for as long as the machine runs and returns
// the halt error once it stops.
//
// Control returning to the idle process with other processes still parked
// means every runnable process has stopped cooperating; per the reference
// behavior this is itself fatal.
func (k *Kernel) Boot(image []byte, threads ...func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e := halt.AsError(r); e != nil {
				err = e
				return
			}
			panic(r)
		}
	}()

	k.log.Info("booting")

	idle := k.CreateProcess(nil)
	idle.id = 0
	k.adopt(idle)

	for _, fn := range threads {
		p := k.CreateKernelThread(fn)
		k.log.WithField("pid", p.ID()).Info("created kernel thread")
	}
	if image != nil {
		p := k.CreateProcess(image)
		k.log.WithField("pid", p.ID()).WithField("bytes", len(image)).Info("created user process")
	}

	k.log.Info("starting scheduler")
	k.Yield()

	k.halt("switched to idle process")
	return nil // unreachable
}

// adopt makes p the current process and binds the calling goroutine as its
// execution context. The synthetic switch frame constructed at creation is
// abandoned; the first switch away from p records its live state instead.
func (k *Kernel) adopt(p *Process) {
	p.started = true
	k.current = p
	k.cpu.Regs.SP = uint32(p.stackTop)
	k.cpu.SetSscratch(uint32(p.stackTop))
}
