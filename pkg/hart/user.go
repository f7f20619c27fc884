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

package hart

import "github.com/emberos/ember/pkg/riscv"

// Fault describes the trap that ended a stretch of user-mode execution.
type Fault struct {
	// Cause is the trap cause code.
	Cause riscv.Cause

	// Tval is the associated faulting value.
	Tval uint32

	// PC is the user program counter at the fault.
	PC uint32
}

// AppRunner runs user-mode execution for the hart, starting at the current
// sepc, and returns when execution traps. The call blocks for as long as
// the application runs; the returned Fault is delivered through the trap
// vector by the hart.
//
// The hart does not interpret the mapped image; without a runner, user
// execution faults immediately.
type AppRunner func(c *CPU) Fault

// SetAppRunner installs the user-mode execution runner.
func (c *CPU) SetAppRunner(app AppRunner) {
	c.app = app
}

// Sret performs the privileged return instruction: the privilege mode is
// restored from sstatus.SPP, the saved interrupt-enable state is restored,
// and execution continues at sepc. A return to user mode runs the
// application until it faults; the fault is then delivered as a trap.
//
// Sret returns only by way of the trap vector, and only if the vector's
// handler itself returns.
func (c *CPU) Sret() {
	if c.sstatus&riscv.SstatusSPP != 0 {
		// The core never sret-returns into supervisor code; kernel
		// threads are entered through the context switch instead.
		panic("sret to supervisor mode is not modeled")
	}
	c.mode = User
	if c.sstatus&riscv.SstatusSPIE != 0 {
		c.sstatus |= riscv.SstatusSIE
	}
	c.sstatus |= riscv.SstatusSPIE

	pc := c.sepc
	f := Fault{Cause: riscv.IllegalInstruction, PC: pc}
	if c.app != nil {
		f = c.app(c)
	}
	c.Trap(f.Cause, f.Tval, f.PC)
}
