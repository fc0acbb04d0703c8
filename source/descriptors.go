// Copyright 2025 Poiesic Systems
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


package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/embedsync/core"
)

// LoadDescriptors reads the JSON descriptor map at path.
func LoadDescriptors(path string) ([]core.FileDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	descriptors, err := ParseDescriptors(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return descriptors, nil
}

// ParseDescriptors decodes a JSON array of descriptors. Every entry must
// carry a locator; input order is preserved.
func ParseDescriptors(r io.Reader) ([]core.FileDescriptor, error) {
	var descriptors []core.FileDescriptor
	if err := json.NewDecoder(transformReader(r)).Decode(&descriptors); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptorMap, err)
	}
	for i, d := range descriptors {
		if err := core.ValidateDescriptor(d); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidDescriptorMap, i, err)
		}
	}
	return descriptors, nil
}
