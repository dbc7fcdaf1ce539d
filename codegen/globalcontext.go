// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

// GlobalContext holds the three deduplicated sets the renderer emits once
// per program, independent of probe count (spec.md §3, "GlobalContext").
// Go maps have no stable iteration order, so Renderer sorts before
// emitting; GlobalContext itself only owns the set-union merge.
type GlobalContext struct {
	PyImports map[string]bool
	CHeaders  map[string]bool
	PyGlobal  map[string]bool
}

// NewGlobalContext returns an empty GlobalContext with initialized sets.
func NewGlobalContext() GlobalContext {
	return GlobalContext{
		PyImports: make(map[string]bool),
		CHeaders:  make(map[string]bool),
		PyGlobal:  make(map[string]bool),
	}
}

// Merge performs a set-union of other into c.
func (c GlobalContext) Merge(other GlobalContext) {
	for k := range other.PyImports {
		c.PyImports[k] = true
	}
	for k := range other.CHeaders {
		c.CHeaders[k] = true
	}
	for k := range other.PyGlobal {
		c.PyGlobal[k] = true
	}
}
