// Copyright 2024 The RiftDB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package util holds small, dependency-free helpers shared across the
// module that don't belong to any one domain package.
package util

// AssertFunc panics when an internal invariant does not hold. It is used
// for storage-corruption-class conditions that no caller can recover
// from, never for ordinary error handling.
func AssertFunc(b bool) {
	if !b {
		panic("assertion failed")
	}
}

// FlagIsSet reports whether flag is set in the val bitmask.
func FlagIsSet[T uint8 | uint16 | uint32 | uint64](val, flag T) bool {
	return (val & flag) != 0
}
