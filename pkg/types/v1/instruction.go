/*
Copyright © 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1

import "fmt"

// Action is what the executor does with a planned package
type Action int

const (
	ActionOk Action = iota
	ActionAdd
	ActionUpdate
	ActionRemove
	ActionError
)

func (a Action) String() string {
	switch a {
	case ActionOk:
		return "ok"
	case ActionAdd:
		return "add"
	case ActionUpdate:
		return "update"
	case ActionRemove:
		return "remove"
	case ActionError:
		return "error"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Instruction is a single planned step
type Instruction struct {
	Action  Action
	Package *PackageDescriptor
	// Reason explains an ActionError instruction
	Reason string
}

func (i Instruction) Key() string {
	return fmt.Sprintf("%s|%s", i.Package.ID(), i.Action)
}

func (i Instruction) String() string {
	if i.Reason != "" {
		return fmt.Sprintf("%s %s: %s", i.Action, i.Package.ID(), i.Reason)
	}
	return fmt.Sprintf("%s %s", i.Action, i.Package.ID())
}

// InstructionSet is the de-duplicated plan of a planning run. Each (package, action)
// pair is stored once and instructions keep the order they were added in.
type InstructionSet struct {
	items []Instruction
	index map[string]int
}

func NewInstructionSet() *InstructionSet {
	return &InstructionSet{index: map[string]int{}}
}

// Add appends the instruction unless the same package already has an instruction
// of the same action. Returns false when it was a duplicate.
func (s *InstructionSet) Add(i Instruction) bool {
	k := i.Key()
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.items)
	s.items = append(s.items, i)
	return true
}

func (s *InstructionSet) Has(p *PackageDescriptor, a Action) bool {
	_, ok := s.index[Instruction{Action: a, Package: p}.Key()]
	return ok
}

// Items returns the instructions in planning order
func (s *InstructionSet) Items() []Instruction {
	out := make([]Instruction, len(s.items))
	copy(out, s.items)
	return out
}

func (s *InstructionSet) Len() int {
	return len(s.items)
}

// Count returns the number of instructions with the given action
func (s *InstructionSet) Count(a Action) int {
	n := 0
	for _, i := range s.items {
		if i.Action == a {
			n++
		}
	}
	return n
}

// ForPackage returns every instruction planned for the given package
func (s *InstructionSet) ForPackage(p *PackageDescriptor) []Instruction {
	var out []Instruction
	for _, i := range s.items {
		if i.Package.SamePackage(p) {
			out = append(out, i)
		}
	}
	return out
}
