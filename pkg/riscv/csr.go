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

package riscv

import "fmt"

// sstatus bit layout (supervisor status register).
const (
	// SstatusSIE enables supervisor-mode interrupts.
	SstatusSIE uint32 = 1 << 1

	// SstatusSPIE is the interrupt-enable bit active prior to the trap;
	// sret copies it back into SIE.
	SstatusSPIE uint32 = 1 << 5

	// SstatusSPP is the privilege mode active prior to the trap; 0 means
	// user mode, so sret with SPP clear drops privilege.
	SstatusSPP uint32 = 1 << 8
)

// satp register layout (Sv32).
const (
	// SatpSv32 selects Sv32 two-level translation when set in satp.
	SatpSv32 uint32 = 1 << 31

	// SatpPPNMask extracts the root page table frame number from satp.
	SatpPPNMask uint32 = (1 << 22) - 1
)

// SatpSv32For returns the satp value selecting Sv32 translation rooted at
// the page table at physical address root.
func SatpSv32For(root Addr) uint32 {
	return SatpSv32 | (root.PFN() & SatpPPNMask)
}

// Cause is a trap cause code, the value of scause at trap delivery. Bit 31
// distinguishes interrupts from exceptions.
type Cause uint32

// CauseInterrupt is set in Cause for interrupts (as opposed to exceptions).
const CauseInterrupt Cause = 1 << 31

// Exception cause codes.
const (
	InstructionAddressMisaligned Cause = 0
	InstructionAccessFault       Cause = 1
	IllegalInstruction           Cause = 2
	Breakpoint                   Cause = 3
	LoadAddressMisaligned        Cause = 4
	LoadAccessFault              Cause = 5
	StoreAddressMisaligned       Cause = 6
	StoreAccessFault             Cause = 7
	EnvironmentCallFromU         Cause = 8
	EnvironmentCallFromS         Cause = 9
	InstructionPageFault         Cause = 12
	LoadPageFault                Cause = 13
	StorePageFault               Cause = 15
)

// IsInterrupt returns true iff c describes an interrupt rather than an
// exception.
func (c Cause) IsInterrupt() bool {
	return c&CauseInterrupt != 0
}

// String implements fmt.Stringer.
func (c Cause) String() string {
	if c.IsInterrupt() {
		return fmt.Sprintf("interrupt(%d)", uint32(c&^CauseInterrupt))
	}
	switch c {
	case InstructionAddressMisaligned:
		return "instruction address misaligned"
	case InstructionAccessFault:
		return "instruction access fault"
	case IllegalInstruction:
		return "illegal instruction"
	case Breakpoint:
		return "breakpoint"
	case LoadAddressMisaligned:
		return "load address misaligned"
	case LoadAccessFault:
		return "load access fault"
	case StoreAddressMisaligned:
		return "store address misaligned"
	case StoreAccessFault:
		return "store access fault"
	case EnvironmentCallFromU:
		return "environment call from U-mode"
	case EnvironmentCallFromS:
		return "environment call from S-mode"
	case InstructionPageFault:
		return "instruction page fault"
	case LoadPageFault:
		return "load page fault"
	case StorePageFault:
		return "store page fault"
	default:
		return fmt.Sprintf("cause(%d)", uint32(c))
	}
}
