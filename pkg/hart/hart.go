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

// Package hart simulates a single RV32 hardware thread: the general-purpose
// register file, the supervisor CSRs, privilege modes and trap delivery.
//
// The hart does not interpret machine code. Stretches of user-mode
// execution are delegated to an AppRunner, which runs until it can report
// the fault that ended execution; the fault is then delivered through the
// installed trap vector exactly as hardware would deliver it. Supervisor
// code is ordinary Go, executing directly against the hart's state.
package hart

import (
	"fmt"

	"github.com/emberos/ember/pkg/riscv"
)

// Mode is a privilege mode.
type Mode int

const (
	// Supervisor is the trusted kernel mode.
	Supervisor Mode = iota

	// User is the restricted execution mode.
	User
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case Supervisor:
		return "S"
	case User:
		return "U"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Registers is the RV32 general-purpose register file, less x0. The S
// block is the callee-saved set; its size and order is the layout contract
// with the context-switch frame.
type Registers struct {
	RA uint32
	SP uint32
	GP uint32
	TP uint32
	T  [7]uint32
	S  [12]uint32
	A  [8]uint32
}

// CPU is the state of the simulated hart.
type CPU struct {
	// Regs is the live register file.
	Regs Registers

	// mode is the current privilege mode. It changes only on trap entry
	// and on sret.
	mode Mode

	// Supervisor CSRs.
	stvec    uint32
	sscratch uint32
	sepc     uint32
	scause   uint32
	stval    uint32
	sstatus  uint32
	satp     uint32

	// vector is the handler bound to the stvec address. Installed once at
	// boot; this is the only wire-level contract with the kernel.
	vector func(*TrapFrame)

	// app runs user-mode execution. Nil selects the default runner, which
	// faults on the first instruction.
	app AppRunner
}

// New returns a CPU in supervisor mode with a zeroed register file.
func New() *CPU {
	return &CPU{}
}

// Mode returns the current privilege mode.
func (c *CPU) Mode() Mode {
	return c.mode
}

// Sscratch returns the sscratch CSR, the trap-entry kernel stack pointer of
// the current process.
func (c *CPU) Sscratch() uint32 {
	return c.sscratch
}

// SetSscratch writes the sscratch CSR.
func (c *CPU) SetSscratch(v uint32) {
	c.sscratch = v
}

// Satp returns the satp CSR, selecting the active address space.
func (c *CPU) Satp() uint32 {
	return c.satp
}

// SetSatp writes the satp CSR. The simulated translation has no TLB, so
// there is nothing further to flush.
func (c *CPU) SetSatp(v uint32) {
	c.satp = v
}

// Sepc returns the sepc CSR, the faulting or resume program counter.
func (c *CPU) Sepc() uint32 {
	return c.sepc
}

// SetSepc writes the sepc CSR.
func (c *CPU) SetSepc(v uint32) {
	c.sepc = v
}

// Sstatus returns the sstatus CSR.
func (c *CPU) Sstatus() uint32 {
	return c.sstatus
}

// SetSstatus writes the sstatus CSR.
func (c *CPU) SetSstatus(v uint32) {
	c.sstatus = v
}

// Scause returns the scause CSR, the cause of the last trap.
func (c *CPU) Scause() riscv.Cause {
	return riscv.Cause(c.scause)
}

// Stval returns the stval CSR, the value associated with the last trap.
func (c *CPU) Stval() uint32 {
	return c.stval
}

// Stvec returns the stvec CSR, the installed trap vector address.
func (c *CPU) Stvec() uint32 {
	return c.stvec
}
