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
	"strings"
	"testing"

	"github.com/emberos/ember/pkg/riscv"
)

func TestBootIdleOnlyHalts(t *testing.T) {
	k := newTestKernel(t)

	err := k.Boot(nil)
	if err == nil || !strings.Contains(err.Error(), "switched to idle process") {
		t.Errorf("Boot with no processes returned %v, want the idle-switch halt", err)
	}
}

func TestBootUserProcessFaultIsFatal(t *testing.T) {
	k := newTestKernel(t)

	// No app runner is installed, so the user process faults with an
	// illegal instruction on its first instruction.
	err := k.Boot(testImage(32))
	if err == nil || !strings.Contains(err.Error(), "unexpected trap") {
		t.Fatalf("Boot returned %v, want a fatal trap", err)
	}
	if got := k.CPU().Scause(); got != riscv.IllegalInstruction {
		t.Errorf("scause = %#x, want illegal instruction", got)
	}
	if got := k.CPU().Sepc(); got != uint32(riscv.UserBase) {
		t.Errorf("sepc = %#x, want user base %#x", got, riscv.UserBase)
	}
}

func TestBootRunsKernelThreads(t *testing.T) {
	k := newTestKernel(t)

	var ticks int
	worker := func() {
		for {
			ticks++
			if ticks == 3 {
				k.CPU().Trap(riscv.Breakpoint, 0, 0)
			}
			k.Yield()
		}
	}

	err := k.Boot(nil, worker)
	if err == nil || !strings.Contains(err.Error(), "unexpected trap") {
		t.Fatalf("Boot returned %v, want the worker's fatal trap", err)
	}
	if ticks != 3 {
		t.Errorf("worker ran %d ticks before trapping, want 3", ticks)
	}
}
