// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsl

import "errors"

// Sentinel errors returned by the parser. Use errors.Is to test for them;
// wrapped errors carry the offending text via %w.
var (
	ErrInvalidProgram = errors.New("dsl: invalid program")
	ErrInvalidAddress = errors.New("dsl: invalid address")
	ErrInvalidDefine  = errors.New("dsl: invalid define")
	ErrInvalidPeek    = errors.New("dsl: invalid peek expression")
)
