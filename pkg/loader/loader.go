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

// Package loader reads raw program images for the process loader. An image
// is a fixed-length byte blob with no header, no relocation and no dynamic
// linking; it is copied page by page to the fixed user virtual base.
package loader

import (
	"fmt"
	"os"

	"github.com/emberos/ember/pkg/riscv"
)

// MaxImageBytes bounds the size of a loadable image: the user region
// extends 16 MiB from the user base.
const MaxImageBytes = 16 << 20

// Image is a loaded program image.
type Image struct {
	// Name is the source path, for diagnostics.
	Name string

	// Data is the raw image. Never mutated after Open.
	Data []byte
}

// Open reads the image at path and validates its size against the user
// region.
func Open(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %q is empty", path)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image %q is %d bytes, exceeding the %d-byte user region", path, len(data), MaxImageBytes)
	}
	return &Image{Name: path, Data: data}, nil
}

// Pages returns the number of page frames the image occupies once loaded,
// counting the zero-padded final partial page.
func (i *Image) Pages() int {
	return (len(i.Data) + riscv.PageSize - 1) / riscv.PageSize
}
