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
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"github.com/emberos/ember/config"
	"github.com/emberos/ember/pkg/hart"
	"github.com/emberos/ember/pkg/kernel"
	"github.com/emberos/ember/pkg/loader"
	"github.com/emberos/ember/pkg/memory"
)

// bootCmd implements subcommands.Command for the "boot" command.
type bootCmd struct{}

// Name implements subcommands.Command.Name.
func (*bootCmd) Name() string {
	return "boot"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*bootCmd) Synopsis() string {
	return "boot the simulated machine and run it until it halts"
}

// Usage implements subcommands.Command.Usage.
func (*bootCmd) Usage() string {
	return `boot [flags] - boots the machine.

The machine runs the idle process, the configured number of kernel worker
threads, and, if an image is given, one user process with the image mapped
at the user base. The user process is driven by a line-echoing shell on the
controlling terminal. The command returns when the machine halts; with
workers only and no image the machine runs until interrupted.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*bootCmd) SetFlags(f *flag.FlagSet) {
	config.RegisterFlags(f)
}

// Execute implements subcommands.Command.Execute.
func (*bootCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	conf, err := config.NewFromFlags(f)
	if err != nil {
		logrus.Errorf("invalid configuration: %v", err)
		return subcommands.ExitUsageError
	}

	log := logrus.New()
	if level, err := logrus.ParseLevel(conf.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		logrus.Errorf("invalid log level %q: %v", conf.LogLevel, err)
		return subcommands.ExitUsageError
	}

	mem, err := memory.New(conf.MemoryBytes())
	if err != nil {
		log.Errorf("configuring memory: %v", err)
		return subcommands.ExitUsageError
	}
	cpu := hart.New()
	k := kernel.New(mem, cpu, log)

	var image []byte
	if conf.Image != "" {
		img, err := loader.Open(conf.Image)
		if err != nil {
			log.Errorf("loading image: %v", err)
			return subcommands.ExitFailure
		}
		log.WithField("image", img.Name).WithField("pages", img.Pages()).Info("image loaded")
		image = img.Data
		cpu.SetAppRunner(shellRunner(log))
	}

	var workers []func()
	for i := 0; i < conf.Workers; i++ {
		workers = append(workers, worker(k, log, i))
	}

	// Boot blocks until the machine halts; every halt is fatal by design.
	err = k.Boot(image, workers...)
	log.Errorf("%v", err)
	return subcommands.ExitFailure
}

// worker returns a kernel thread entry that reports its turn and yields, in
// the style of the reference kernel's demonstration threads. Kernel threads
// never terminate.
func worker(k *kernel.Kernel, log logrus.FieldLogger, n int) func() {
	return func() {
		for {
			log.WithField("worker", n).Debug("running")
			k.Yield()
		}
	}
}
