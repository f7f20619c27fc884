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

package main

import (
	"fmt"

	"github.com/mattn/go-tty"
	"github.com/sirupsen/logrus"

	"github.com/emberos/ember/pkg/hart"
	"github.com/emberos/ember/pkg/riscv"
)

// shellRunner returns the application runner standing in for the loaded
// user program: a line-reading shell on the controlling terminal that
// echoes each line back. When the terminal closes, the shell "exits" by
// raising an environment call, which the kernel treats like any other
// trap: fatally.
func shellRunner(log logrus.FieldLogger) hart.AppRunner {
	return func(c *hart.CPU) hart.Fault {
		t, err := tty.Open()
		if err != nil {
			log.Errorf("shell: no terminal: %v", err)
			return hart.Fault{Cause: riscv.EnvironmentCallFromU, PC: c.Sepc()}
		}
		defer t.Close()

		out := t.Output()
		for {
			fmt.Fprint(out, "> ")
			line, err := t.ReadString()
			if err != nil {
				break
			}
			fmt.Fprintf(out, "%s\r\n", line)
		}
		return hart.Fault{Cause: riscv.EnvironmentCallFromU, PC: c.Sepc()}
	}
}
