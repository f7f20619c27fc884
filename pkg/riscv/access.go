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

// AccessType specifies memory access types. This is used for
// setting mapping permissions.
type AccessType struct {
	// Read is read access.
	Read bool

	// Write is write access.
	Write bool

	// Execute is executable access.
	Execute bool
}

// String returns a pretty representation of access.
func (a AccessType) String() string {
	s := [3]byte{'-', '-', '-'}
	if a.Read {
		s[0] = 'r'
	}
	if a.Write {
		s[1] = 'w'
	}
	if a.Execute {
		s[2] = 'x'
	}
	return string(s[:])
}

// Any returns true iff at least one of Read, Write or Execute is true.
func (a AccessType) Any() bool {
	return a.Read || a.Write || a.Execute
}

// SupersetOf returns true iff the access types in a are a superset of the
// access types in other.
func (a AccessType) SupersetOf(other AccessType) bool {
	if !a.Read && other.Read {
		return false
	}
	if !a.Write && other.Write {
		return false
	}
	if !a.Execute && other.Execute {
		return false
	}
	return true
}

// Convenient access types.
var (
	NoAccess         = AccessType{}
	Read             = AccessType{Read: true}
	Write            = AccessType{Write: true}
	Execute          = AccessType{Execute: true}
	ReadWrite        = AccessType{Read: true, Write: true}
	ReadExecute      = AccessType{Read: true, Execute: true}
	ReadWriteExecute = AccessType{Read: true, Write: true, Execute: true}
)
