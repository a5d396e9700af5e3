// Copyright 2025 Tom Barlow
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

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry is one name/value pair of an OrderedMap.
type Entry struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// OrderedMap is a string mapping that keeps declaration order. It decodes
// from either a YAML mapping or a sequence of {name, value} entries.
type OrderedMap []Entry

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *OrderedMap) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(OrderedMap, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: value of %q must be a scalar", v.Line, k.Value)
			}
			out = append(out, Entry{Name: k.Value, Value: v.Value})
		}
		*m = out
		return nil

	case yaml.SequenceNode:
		var entries []Entry
		if err := node.Decode(&entries); err != nil {
			return err
		}
		*m = entries
		return nil

	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*m = nil
			return nil
		}
	}
	return fmt.Errorf("line %d: expected a mapping or a list of {name, value} entries", node.Line)
}

// Get returns the value stored under name.
func (m OrderedMap) Get(name string) (string, bool) {
	for _, e := range m {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}
