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

// Package config holds the machine configuration: everything about a boot
// that is not part of the core's contracts. Values come from an optional
// yaml file, overridden by any command-line flags that were set explicitly.
package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/emberos/ember/pkg/riscv"
)

// Config is the machine configuration.
type Config struct {
	// MemoryMiB is the total simulated physical memory in MiB.
	MemoryMiB int `yaml:"memory-mib"`

	// Image is the path of the user program image to load, if any.
	Image string `yaml:"image"`

	// Workers is the number of demonstration kernel threads to create.
	Workers int `yaml:"workers"`

	// LogLevel is the logrus level for the diagnostic sink.
	LogLevel string `yaml:"log-level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MemoryMiB: 32,
		Workers:   2,
		LogLevel:  "info",
	}
}

// Load reads a yaml configuration file over the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return c, nil
}

// Validate checks the configuration for values the machine cannot honor.
func (c *Config) Validate() error {
	bytes := uint64(c.MemoryMiB) << 20
	if c.MemoryMiB <= 0 || bytes <= riscv.KernelReserve {
		return fmt.Errorf("memory-mib %d leaves no free pages", c.MemoryMiB)
	}
	if uint64(riscv.KernelBase)+bytes >= 1<<32 {
		return fmt.Errorf("memory-mib %d does not fit below the top of the 32-bit physical address space", c.MemoryMiB)
	}
	if c.Workers < 0 || c.Workers > 6 {
		// Slot 0 is idle and one slot may go to the user process.
		return fmt.Errorf("workers %d outside [0, 6]", c.Workers)
	}
	return nil
}

// MemoryBytes returns the configured memory size in bytes.
func (c *Config) MemoryBytes() uint32 {
	return uint32(c.MemoryMiB) << 20
}

// RegisterFlags registers the configuration flags on fs.
func RegisterFlags(fs *flag.FlagSet) {
	d := Default()
	fs.String("config", "", "path to a yaml machine configuration file")
	fs.Int("memory-mib", d.MemoryMiB, "simulated physical memory in MiB")
	fs.String("image", d.Image, "user program image to load")
	fs.Int("workers", d.Workers, "number of demonstration kernel threads")
	fs.String("log-level", d.LogLevel, "diagnostic log level")
}

// NewFromFlags builds a Config from fs: the file named by -config (or the
// defaults) with explicitly-set flags applied on top.
func NewFromFlags(fs *flag.FlagSet) (*Config, error) {
	c := Default()
	if path := fs.Lookup("config").Value.String(); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		c = loaded
	}

	// Values registered by RegisterFlags are stdlib flag values, which all
	// implement flag.Getter with the registered type.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "memory-mib":
			c.MemoryMiB = f.Value.(flag.Getter).Get().(int)
		case "image":
			c.Image = f.Value.String()
		case "workers":
			c.Workers = f.Value.(flag.Getter).Get().(int)
		case "log-level":
			c.LogLevel = f.Value.String()
		}
	})
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
