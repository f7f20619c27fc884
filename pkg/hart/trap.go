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

import (
	"fmt"

	"github.com/emberos/ember/pkg/halt"
	"github.com/emberos/ember/pkg/riscv"
)

// TrapFrame captures the machine state at trap delivery: the cause code,
// the faulting value, the faulting program counter and the general-purpose
// registers.
type TrapFrame struct {
	// Cause is the trap cause, also visible as scause.
	Cause riscv.Cause

	// Tval is the faulting value (address or instruction), also visible
	// as stval.
	Tval uint32

	// EPC is the faulting program counter, also visible as sepc.
	EPC uint32

	// Regs is a copy of the register file at fault time.
	Regs Registers
}

// String implements fmt.Stringer.
func (f *TrapFrame) String() string {
	return fmt.Sprintf("%v scause=%#x stval=%#x sepc=%#x", f.Cause, uint32(f.Cause), f.Tval, f.EPC)
}

// InstallTrapVector binds handler to the trap vector address addr and
// writes stvec. It is called exactly once, at boot.
func (c *CPU) InstallTrapVector(addr riscv.Addr, handler func(*TrapFrame)) {
	if c.vector != nil {
		panic("trap vector already installed")
	}
	c.stvec = uint32(addr)
	c.vector = handler
}

// Trap delivers a trap: it records cause/tval/pc in the CSRs, saves the
// prior privilege mode and interrupt-enable state in sstatus, re-enters
// supervisor mode and transfers control to the installed vector with a
// captured trap frame.
func (c *CPU) Trap(cause riscv.Cause, tval, pc uint32) {
	if c.vector == nil {
		halt.Panicf("trap (%v) taken with no vector installed", cause)
	}

	c.scause = uint32(cause)
	c.stval = tval
	c.sepc = pc

	// SPP records the interrupted mode; SPIE saves SIE, which is cleared
	// for the handler.
	if c.mode == User {
		c.sstatus &^= riscv.SstatusSPP
	} else {
		c.sstatus |= riscv.SstatusSPP
	}
	if c.sstatus&riscv.SstatusSIE != 0 {
		c.sstatus |= riscv.SstatusSPIE
	} else {
		c.sstatus &^= riscv.SstatusSPIE
	}
	c.sstatus &^= riscv.SstatusSIE
	c.mode = Supervisor

	c.vector(&TrapFrame{
		Cause: cause,
		Tval:  tval,
		EPC:   pc,
		Regs:  c.Regs,
	})
}
