// Copyright 2026 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package table

import (
	"golang.org/x/exp/slices"
)

// Record is a flat row of named string values which remembers the order in
// which its keys were first set.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord creates an empty Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Set the value of the key. Setting an existing key replaces its value but
// keeps the key at its original position.
func (r *Record) Set(key, value string) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get the value of the key, if present.
func (r *Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys in insertion order. The caller may modify the result.
func (r *Record) Keys() []string {
	return slices.Clone(r.keys)
}

// Len is the number of keys in the record.
func (r *Record) Len() int {
	return len(r.keys)
}

// Values returns the values for the given columns, with empty strings for
// the columns not present in the record.
func (r *Record) Values(columns []string) []string {
	res := make([]string, len(columns))
	for i, c := range columns {
		res[i] = r.values[c]
	}
	return res
}
