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

// Scheduling is cooperative round robin: nothing preempts a running
// process, and control moves only when it calls Yield.

// idle returns the idle process, which occupies slot 0 and is always
// runnable once created.
func (k *Kernel) idle() *Process {
	return &k.procs[0]
}

// pickNext selects the process to run after the current one: a circular
// scan of the table starting at the slot just past the current process's
// identifier, taking the first runnable process with a positive identifier.
// The idle process is the fallback when no such process exists.
func (k *Kernel) pickNext() *Process {
	next := k.idle()
	for i := 0; i < ProcsMax; i++ {
		p := &k.procs[(int(k.current.id)+i)%ProcsMax]
		if p.state == ProcessRunnable && p.id > 0 {
			next = p
			break
		}
	}
	return next
}

// Yield relinquishes the processor. The next process is selected by
// circular scan; if it is the caller, Yield is a no-op. Otherwise the
// next process's page tables are installed into satp, its kernel stack top
// into sscratch, and the context switch is performed. Yield does not
// return until the caller is scheduled again.
func (k *Kernel) Yield() {
	if k.current == nil {
		panic("Yield before scheduling started")
	}
	next := k.pickNext()
	if next == k.current {
		return
	}

	k.cpu.SetSatp(next.pt.SATP())
	k.cpu.SetSscratch(uint32(next.stackTop))

	prev := k.current
	k.current = next
	k.switchContext(prev, next)
}
