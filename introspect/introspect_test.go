// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package introspect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferencesSimplePrint(t *testing.T) {
	refs, err := References("print(pid)", map[string]bool{"pid": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"pid"}, refs)
}

func TestReferencesMultipleVarsOrderPreserved(t *testing.T) {
	refs, err := References("print(c, s)", map[string]bool{"c": true, "s": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "s"}, refs)
}

func TestReferencesDeduplicates(t *testing.T) {
	refs, err := References("print(pid); print(pid)", map[string]bool{"pid": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"pid"}, refs)
}

func TestReferencesIgnoresBuiltinCalls(t *testing.T) {
	refs, err := References("print(str(pid))", map[string]bool{"pid": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"pid"}, refs)
}

func TestReferencesIgnoresAttributeAccess(t *testing.T) {
	refs, err := References("print(comm.decode())", map[string]bool{"comm": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"comm"}, refs)
}

func TestReferencesUnregisteredVarFails(t *testing.T) {
	_, err := References("print(xyzzy)", map[string]bool{"pid": true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidVar))
}

func TestReferencesUnterminatedStringFails(t *testing.T) {
	_, err := References(`print('unterminated)`, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidScript))
}
