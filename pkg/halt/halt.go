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

// Package halt implements the whole-system fatal stop. Any unrecoverable
// condition in the core (resource exhaustion, unexpected trap) halts the
// machine; there is no process-local failure isolation. The halt is carried
// as a typed panic value so the top of the boot stack, and tests, can
// distinguish it from an ordinary programming error.
package halt

import "fmt"

// Error is the value carried by a fatal halt panic.
type Error struct {
	// Reason describes the condition that halted the machine.
	Reason string
}

// Error implements error.
func (e *Error) Error() string {
	return "machine halted: " + e.Reason
}

// Panicf halts the machine with a formatted reason. It does not return.
func Panicf(format string, args ...any) {
	panic(&Error{Reason: fmt.Sprintf(format, args...)})
}

// AsError returns the *Error carried by a recovered panic value, or nil if
// the panic was not a machine halt.
func AsError(recovered any) *Error {
	if e, ok := recovered.(*Error); ok {
		return e
	}
	return nil
}
