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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/emberos/ember/pkg/riscv"
)

// adoptIdle creates the idle process and makes the calling goroutine its
// context, the way Boot does.
func adoptIdle(k *Kernel) *Process {
	idle := k.CreateProcess(nil)
	idle.id = 0
	k.adopt(idle)
	return idle
}

func TestRoundRobinOrder(t *testing.T) {
	k := newTestKernel(t)
	adoptIdle(k)

	var got []ProcessID
	entry := func() {
		for {
			got = append(got, k.Current().ID())
			if len(got) >= 9 {
				k.CPU().Trap(riscv.Breakpoint, 0, 0)
			}
			k.Yield()
		}
	}
	for i := 0; i < 3; i++ {
		k.CreateKernelThread(entry)
	}

	runHalted(t, k.Yield)

	// Identifiers 2, 3, 4 (slot 0 is idle), visited in strict circular
	// order starting just past the caller.
	want := []ProcessID{2, 3, 4, 2, 3, 4, 2, 3, 4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scheduling order mismatch (-want +got):\n%s", diff)
	}
}

func TestYieldIdleOnlyIsNoOp(t *testing.T) {
	k := newTestKernel(t)
	idle := adoptIdle(k)

	k.Yield()
	k.Yield()
	if k.Current() != idle {
		t.Errorf("current = %v after idle-only yields, want idle", k.Current().ID())
	}
}

func TestYieldSelfIsNoOp(t *testing.T) {
	k := newTestKernel(t)
	adoptIdle(k)

	var yields int
	var current ProcessID
	k.CreateKernelThread(func() {
		// The only runnable process with a positive identifier is the
		// caller itself, so these yields must not switch.
		k.Yield()
		k.Yield()
		yields = 2
		current = k.Current().ID()
		k.CPU().Trap(riscv.Breakpoint, 0, 0)
	})

	runHalted(t, k.Yield)
	if yields != 2 {
		t.Errorf("thread performed %d yields before halting, want 2", yields)
	}
	if current != 2 {
		t.Errorf("current after self-yields = %v, want 2", current)
	}
}

func TestPickNext(t *testing.T) {
	k := newTestKernel(t)
	idle := adoptIdle(k)
	a := k.CreateKernelThread(func() {})
	b := k.CreateKernelThread(func() {})
	c := k.CreateKernelThread(func() {})

	for _, tc := range []struct {
		current *Process
		want    *Process
	}{
		{idle, a},
		{a, b},
		{b, c},
		{c, a}, // wraps around, skipping idle
	} {
		k.current = tc.current
		if got := k.pickNext(); got != tc.want {
			t.Errorf("pickNext from %v = %v, want %v", tc.current.ID(), got.ID(), tc.want.ID())
		}
	}

	// With every real process off the table, idle is the fallback.
	a.state, b.state, c.state = ProcessUnused, ProcessUnused, ProcessUnused
	k.current = idle
	if got := k.pickNext(); got != idle {
		t.Errorf("pickNext with no runnable processes = %v, want idle", got.ID())
	}
}

func TestYieldInstallsAddressSpaceAndScratch(t *testing.T) {
	k := newTestKernel(t)
	adoptIdle(k)

	var satp, sscratch uint32
	var p *Process
	p = k.CreateKernelThread(func() {
		satp = k.CPU().Satp()
		sscratch = k.CPU().Sscratch()
		k.CPU().Trap(riscv.Breakpoint, 0, 0)
	})

	runHalted(t, k.Yield)
	if want := p.PageTables().SATP(); satp != want {
		t.Errorf("satp while running = %#x, want %#x", satp, want)
	}
	if want := uint32(p.KernelStackTop()); sscratch != want {
		t.Errorf("sscratch while running = %#x, want %#x", sscratch, want)
	}
}
