// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

import (
	"errors"
	"testing"

	"github.com/go-delve/delve/pkg/dwarf/regnum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLocationExprRegister(t *testing.T) {
	expr := []byte{opRegLo + byte(regnum.AMD64_Rdi)}
	got, err := decodeLocationExpr(expr, "")
	require.NoError(t, err)
	assert.Equal(t, "$di", got)
}

func TestDecodeLocationExprEveryCuratedRegisterRoundTrips(t *testing.T) {
	for num, name := range regNames {
		expr := []byte{opRegLo + byte(num)}
		got, err := decodeLocationExpr(expr, "")
		require.NoError(t, err)
		assert.Equal(t, "$"+name, got)
		assert.NotContains(t, got, "rsp")
	}
}

func TestDecodeLocationExprFbregPositiveOffset(t *testing.T) {
	expr := append([]byte{opFbreg}, encodeSleb128(8)...)
	got, err := decodeLocationExpr(expr, "$sp")
	require.NoError(t, err)
	assert.Equal(t, "$sp+8*", got)
}

func TestDecodeLocationExprFbregNegativeOffset(t *testing.T) {
	expr := append([]byte{opFbreg}, encodeSleb128(-16)...)
	got, err := decodeLocationExpr(expr, "$sp")
	require.NoError(t, err)
	assert.Equal(t, "$sp-16*", got)
}

func TestDecodeLocationExprCallFrameCFA(t *testing.T) {
	got, err := decodeLocationExpr([]byte{opCallFrameCFA}, "$sp+16")
	require.NoError(t, err)
	assert.Equal(t, "$sp+16*", got)
}

func TestDecodeLocationExprPieceSeparator(t *testing.T) {
	expr := []byte{opRegLo + byte(regnum.AMD64_Rax), opPiece, 0x04, opRegLo + byte(regnum.AMD64_Rdx)}
	got, err := decodeLocationExpr(expr, "")
	require.NoError(t, err)
	assert.Equal(t, "$ax;;;$dx", got)
}

func TestDecodeLocationExprUnsupportedOp(t *testing.T) {
	_, err := decodeLocationExpr([]byte{0x03 /* DW_OP_addr, not supported */}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDwarfOp))
}

func TestUleb128RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 40} {
		enc := encodeUleb128(v)
		got, n, err := decodeUleb128(enc)
		require.NoError(t, err)
		assert.Equal(t, len(enc), n)
		assert.Equal(t, v, got)
	}
}

func TestSleb128RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 63, -64, 1000, -1000} {
		enc := encodeSleb128(v)
		got, n, err := decodeSleb128(enc)
		require.NoError(t, err)
		assert.Equal(t, len(enc), n)
		assert.Equal(t, v, got)
	}
}

// encodeUleb128/encodeSleb128 are test-only encoders, the mirror image of
// the decoders under test above.

func encodeUleb128(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

func encodeSleb128(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}
