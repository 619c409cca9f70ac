// Copyright (c) 2025 The layerdb developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func M(a ...interface{}) []interface{} {
	return a
}

func TestLayerReadThrough(t *testing.T) {
	parent := newLayer(nil)
	parent.Write([]byte("k1"), []byte("v1"))
	parent.Write([]byte("k2"), []byte("v2"))

	child := newLayer(parent)

	tests := []struct {
		f         func()
		getKey    string
		getReturn []interface{}
	}{
		{func() {}, "k1", M([]byte("v1"), true, nil)},
		{func() {}, "k3", M([]byte(nil), false, nil)},
		{func() { child.Erase([]byte("k1")) }, "k1", M([]byte(nil), false, nil)},
		{func() { child.Write([]byte("k1"), []byte("v1x")) }, "k1", M([]byte("v1x"), true, nil)},
		{func() { child.Write([]byte("k3"), []byte("v3")) }, "k3", M([]byte("v3"), true, nil)},
		{func() { child.Detach() }, "k2", M([]byte(nil), false, nil)},
		{func() { child.Attach(parent) }, "k2", M([]byte("v2"), true, nil)},
	}

	for _, tt := range tests {
		tt.f()
		assert.Equal(t, tt.getReturn, M(child.Read([]byte(tt.getKey))))
	}

	// the parent never saw the child's pending changes
	assert.Equal(t, M([]byte("v1"), true, nil), M(parent.Read([]byte("k1"))))
}

func TestLayerKeys(t *testing.T) {
	layer := newLayer(nil)
	layer.Write([]byte("b"), []byte("2"))
	layer.Write([]byte("a"), []byte("1"))
	layer.Erase([]byte("d"))
	layer.Erase([]byte("c"))

	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, layer.UpdatedKeys())
	assert.Equal(t, [][]byte{[]byte("c"), []byte("d")}, layer.DeletedKeys())

	// a write cancels a pending delete and vice versa
	layer.Write([]byte("c"), []byte("3"))
	layer.Erase([]byte("a"))
	assert.Equal(t, [][]byte{[]byte("b"), []byte("c")}, layer.UpdatedKeys())
	assert.Equal(t, [][]byte{[]byte("a"), []byte("d")}, layer.DeletedKeys())
}

func TestLayerCommitPrecedence(t *testing.T) {
	parent := newLayer(nil)
	parent.Write([]byte("k1"), []byte("a1"))
	parent.Write([]byte("k2"), []byte("a2"))
	parent.Erase([]byte("k4"))

	child := newLayer(parent)
	child.Write([]byte("k2"), []byte("b2"))
	child.Erase([]byte("k1"))
	child.Write([]byte("k4"), []byte("b4"))

	assert.Nil(t, child.Commit())

	tests := []struct {
		key       string
		getReturn []interface{}
	}{
		{"k1", M([]byte(nil), false, nil)}, // child's erase wins
		{"k2", M([]byte("b2"), true, nil)}, // child's write wins
		{"k4", M([]byte("b4"), true, nil)}, // child's write resurrects parent's erase
	}
	for _, tt := range tests {
		assert.Equal(t, tt.getReturn, M(parent.Read([]byte(tt.key))))
	}
}

func TestLayerCommitDetached(t *testing.T) {
	layer := newLayer(nil)
	layer.Write([]byte("k"), []byte("v"))
	assert.Error(t, layer.Commit())
}
