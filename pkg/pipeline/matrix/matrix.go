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

// Package matrix expands a module→version compatibility matrix, optionally
// constrained by per-module minimum platforms, into the test job of a
// workflow.
//
// Two layouts are supported. Parallel mode fans the job out over matrix axes
// so every (platform, module version) pair runs as its own instance. Sequential
// mode keeps one instance per (platform, version) pair and groups every
// compatible module into a single conditional step.
package matrix

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ModuleVersions lists the versions a module is built for, in declared order.
type ModuleVersions struct {
	Module   string
	Versions []string
}

// VersionMatrix maps modules to supported versions. It is an ordered slice so
// expansion never depends on map iteration order.
type VersionMatrix []ModuleVersions

// NewVersionMatrix builds a VersionMatrix from an unordered map. Modules are
// sorted by id; version order is kept as given.
func NewVersionMatrix(m map[string][]string) VersionMatrix {
	modules := make([]string, 0, len(m))
	for module := range m {
		modules = append(modules, module)
	}
	sort.Strings(modules)

	vm := make(VersionMatrix, 0, len(modules))
	for _, module := range modules {
		vm = append(vm, ModuleVersions{
			Module:   module,
			Versions: append([]string(nil), m[module]...),
		})
	}
	return vm
}

// Versions returns the union of all versions in first-seen order.
func (vm VersionMatrix) Versions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, mv := range vm {
		for _, v := range mv.Versions {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Supports reports whether module declares version.
func (mv ModuleVersions) Supports(version string) bool {
	for _, v := range mv.Versions {
		if v == version {
			return true
		}
	}
	return false
}

// PlatformMatrix maps modules to the minimum platform they run on. Modules
// without an entry run on every platform.
type PlatformMatrix map[string]string

// Compatible reports whether module may run on platform, i.e. its floor is
// not above platform.
func (pm PlatformMatrix) Compatible(module, platform string) bool {
	floor, ok := pm[module]
	if !ok {
		return true
	}
	return ComparePlatforms(floor, platform) <= 0
}

// ComparePlatforms orders platform identifiers such as "8", "11", "1.8" or
// "17". Dot-separated components compare numerically when both parse as
// integers and lexicographically otherwise; a prefix sorts first.
// It returns -1, 0 or +1.
func ComparePlatforms(a, b string) int {
	if a == b {
		return 0
	}
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareComponent(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func compareComponent(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

// Pair is a "++version module" entry of a flattened project axis.
func Pair(version, module string) string {
	return fmt.Sprintf("++%s %s", version, module)
}

// Flatten returns the "++version module" pairs of every module compatible
// with platform, in module then version order. An empty platform disables
// filtering.
func Flatten(vm VersionMatrix, pm PlatformMatrix, platform string) []string {
	var out []string
	for _, mv := range vm {
		if platform != "" && !pm.Compatible(mv.Module, platform) {
			continue
		}
		for _, v := range mv.Versions {
			out = append(out, Pair(v, mv.Module))
		}
	}
	return out
}

// CompatibleModules returns the modules that declare version and run on
// platform, in matrix order.
func CompatibleModules(vm VersionMatrix, pm PlatformMatrix, platform, version string) []string {
	var out []string
	for _, mv := range vm {
		if mv.Supports(version) && pm.Compatible(mv.Module, platform) {
			out = append(out, mv.Module)
		}
	}
	return out
}
