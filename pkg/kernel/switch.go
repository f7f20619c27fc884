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
	"github.com/emberos/ember/pkg/halt"
	"github.com/emberos/ember/pkg/riscv"
)

// switchFrame is the saved execution context pushed onto a process's kernel
// stack when it is switched out, and popped when it is switched back in.
//
// The serialized layout, with sp addressing the frame base, is:
//
//	sp + 0..44   s0..s11, the callee-saved registers, ascending
//	sp + 48      ra, the resume address
//
// This layout is a contract with the synthetic frame built by
// CreateProcess and patched by CreateKernelThread; the register count and
// order here must never change independently of those.
type switchFrame struct {
	S  [12]uint32
	RA uint32
}

const (
	// switchFrameBytes is the serialized size of a switchFrame.
	switchFrameBytes = 13 * 4

	// switchFrameRAOffset is the byte offset of the ra slot from the
	// frame base: past the twelve saved words.
	switchFrameRAOffset = 12 * 4
)

// pushFrame stores f on the stack whose top is sp and returns the new
// stack pointer, addressing the frame base.
func (k *Kernel) pushFrame(sp riscv.Addr, f *switchFrame) riscv.Addr {
	sp -= switchFrameBytes
	for i, s := range f.S {
		k.mem.Write32(sp+riscv.Addr(i)*4, s)
	}
	k.mem.Write32(sp+switchFrameRAOffset, f.RA)
	return sp
}

// popFrame loads the frame at sp and returns it along with the stack
// pointer advanced past it.
func (k *Kernel) popFrame(sp riscv.Addr) (switchFrame, riscv.Addr) {
	var f switchFrame
	for i := range f.S {
		f.S[i] = k.mem.Read32(sp + riscv.Addr(i)*4)
	}
	f.RA = k.mem.Read32(sp + switchFrameRAOffset)
	return f, sp + switchFrameBytes
}

// switchContext saves the running context's callee-saved register set onto
// its own kernel stack, records the resulting stack pointer in prev, loads
// the stack pointer from next and pops its frame into the register file,
// then transfers control. This is the only place where the identity of the
// running context changes.
//
// The caller does not return from switchContext until it is scheduled
// again; a first switch into a fresh process dispatches the entry point
// named by the popped return address instead of resuming a parked
// goroutine.
func (k *Kernel) switchContext(prev, next *Process) {
	out := switchFrame{RA: k.cpu.Regs.RA, S: k.cpu.Regs.S}
	prev.sp = k.pushFrame(riscv.Addr(k.cpu.Regs.SP), &out)

	in, sp := k.popFrame(next.sp)
	k.cpu.Regs.RA = in.RA
	k.cpu.Regs.S = in.S
	k.cpu.Regs.SP = uint32(sp)

	if !next.started {
		next.started = true
		entry := k.text[riscv.Addr(in.RA)]
		if entry == nil {
			k.halt("process %v: first switch to unmapped text %#x", next.id, in.RA)
		}
		go k.runProcess(next, entry)
	} else {
		next.resume <- struct{}{}
	}

	select {
	case <-prev.resume:
	case <-k.stop:
		// The machine halted while this context was parked; unwind.
		panic(k.stopErr)
	}
}

// runProcess is the goroutine backing a fresh process context. It invokes
// the entry point named by the process's first switch frame. Entry points
// never return: kernel threads loop and yield forever, and the user
// trampoline ends in a trap. A halt raised on this context stops the whole
// machine.
func (k *Kernel) runProcess(p *Process, entry func()) {
	defer func() {
		if r := recover(); r != nil {
			if e := halt.AsError(r); e != nil {
				k.shutdown(e)
				return
			}
			panic(r)
		}
	}()

	// Dispatch consumes the return address, as a call would.
	k.cpu.Regs.RA = 0
	entry()
	k.halt("process %v returned from its entry point", p.id)
}
