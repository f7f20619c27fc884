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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/emberos/ember/pkg/halt"
	"github.com/emberos/ember/pkg/riscv"
)

const testVector riscv.Addr = 0x8020_0000

func TestTrapDelivery(t *testing.T) {
	c := New()
	var got *TrapFrame
	c.InstallTrapVector(testVector, func(f *TrapFrame) { got = f })

	if c.Stvec() != uint32(testVector) {
		t.Errorf("stvec = %#x, want %#x", c.Stvec(), testVector)
	}

	c.Regs.RA = 0x1111
	c.Regs.S[3] = 0x2222
	c.Trap(riscv.StorePageFault, 0xdead, 0xbeef)

	if got == nil {
		t.Fatal("trap did not reach the handler")
	}
	if got.Cause != riscv.StorePageFault || got.Tval != 0xdead || got.EPC != 0xbeef {
		t.Errorf("frame = %v, want store page fault, stval=0xdead, sepc=0xbeef", got)
	}
	if diff := cmp.Diff(c.Regs, got.Regs); diff != "" {
		t.Errorf("frame registers differ from the register file (-live +frame):\n%s", diff)
	}

	// The frame fields must match the CSRs at fault time.
	if c.Scause() != riscv.StorePageFault || c.Stval() != 0xdead || c.Sepc() != 0xbeef {
		t.Errorf("CSRs scause=%v stval=%#x sepc=%#x disagree with the frame", c.Scause(), c.Stval(), c.Sepc())
	}
	if c.Mode() != Supervisor {
		t.Errorf("mode after trap = %v, want S", c.Mode())
	}
	// SPP records that the trap came from supervisor mode.
	if c.Sstatus()&riscv.SstatusSPP == 0 {
		t.Error("SPP clear after a supervisor-mode trap")
	}
}

func TestTrapWithoutVectorHalts(t *testing.T) {
	c := New()
	defer func() {
		if halt.AsError(recover()) == nil {
			t.Error("trap with no vector did not halt the machine")
		}
	}()
	c.Trap(riscv.IllegalInstruction, 0, 0)
}

func TestInstallTrapVectorTwicePanics(t *testing.T) {
	c := New()
	c.InstallTrapVector(testVector, func(*TrapFrame) {})
	defer func() {
		if recover() == nil {
			t.Error("second InstallTrapVector did not panic")
		}
	}()
	c.InstallTrapVector(testVector, func(*TrapFrame) {})
}

func TestSretRunsAppInUserMode(t *testing.T) {
	c := New()
	var frames []*TrapFrame
	c.InstallTrapVector(testVector, func(f *TrapFrame) { frames = append(frames, f) })

	var sawMode Mode
	var sawPC uint32
	c.SetAppRunner(func(c *CPU) Fault {
		sawMode = c.Mode()
		sawPC = c.Sepc()
		return Fault{Cause: riscv.EnvironmentCallFromU, Tval: 7, PC: c.Sepc() + 4}
	})

	c.SetSepc(uint32(riscv.UserBase))
	c.SetSstatus(riscv.SstatusSPIE) // SPP clear: drop to user mode
	c.Sret()

	if sawMode != User {
		t.Errorf("app ran in mode %v, want U", sawMode)
	}
	if sawPC != uint32(riscv.UserBase) {
		t.Errorf("app started at %#x, want user base %#x", sawPC, riscv.UserBase)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d trap frames, want 1", len(frames))
	}
	f := frames[0]
	if f.Cause != riscv.EnvironmentCallFromU || f.Tval != 7 || f.EPC != uint32(riscv.UserBase)+4 {
		t.Errorf("fault delivered as %v", f)
	}
	// Back in supervisor mode, with SPP recording the user-mode origin.
	if c.Mode() != Supervisor || c.Sstatus()&riscv.SstatusSPP != 0 {
		t.Errorf("mode=%v sstatus=%#x after user fault", c.Mode(), c.Sstatus())
	}
}

func TestSretDefaultRunnerFaults(t *testing.T) {
	c := New()
	var got *TrapFrame
	c.InstallTrapVector(testVector, func(f *TrapFrame) { got = f })

	c.SetSepc(uint32(riscv.UserBase))
	c.SetSstatus(riscv.SstatusSPIE)
	c.Sret()

	if got == nil || got.Cause != riscv.IllegalInstruction || got.EPC != uint32(riscv.UserBase) {
		t.Errorf("default runner fault = %v, want illegal instruction at user base", got)
	}
}

func TestSretToSupervisorPanics(t *testing.T) {
	c := New()
	c.SetSstatus(riscv.SstatusSPP)
	defer func() {
		if recover() == nil {
			t.Error("sret to supervisor mode did not panic")
		}
	}()
	c.Sret()
}

func TestSretRestoresInterruptEnable(t *testing.T) {
	c := New()
	c.InstallTrapVector(testVector, func(*TrapFrame) {})
	c.SetAppRunner(func(c *CPU) Fault {
		// SPIE was set, so user execution runs with interrupts enabled.
		if c.Sstatus()&riscv.SstatusSIE == 0 {
			t.Error("SIE clear during user execution")
		}
		return Fault{Cause: riscv.Breakpoint, PC: c.Sepc()}
	})
	c.SetSepc(uint32(riscv.UserBase))
	c.SetSstatus(riscv.SstatusSPIE)
	c.Sret()

	// Trap entry saved SIE into SPIE and cleared SIE for the handler.
	if c.Sstatus()&riscv.SstatusSIE != 0 {
		t.Error("SIE set after trap entry")
	}
	if c.Sstatus()&riscv.SstatusSPIE == 0 {
		t.Error("SPIE lost across trap entry")
	}
}
