// Copyright (c) 2025 The layerdb developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelDB(t *testing.T) {
	var lvldbs []*LevelDB
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	lvldb, err := New(t.TempDir(), Options{16, 16})
	assert.Nil(t, err)
	defer lvldb.Close()
	lvldbs = append(lvldbs, lvldb)

	memlvldb, err := NewMem()
	assert.Nil(t, err)
	defer memlvldb.Close()
	lvldbs = append(lvldbs, memlvldb)

	for _, leveldb := range lvldbs {
		err = leveldb.Put(key, value)
		assert.Nil(t, err)

		ret1, err := leveldb.Get(key)
		assert.Nil(t, err)

		ret2, err := leveldb.Has(key)
		assert.Nil(t, err)

		ret3, err := leveldb.Has(inValidKey)
		assert.Nil(t, err)

		err = leveldb.Delete(key)
		assert.Nil(t, err)

		_, ret4 := leveldb.Get(key)

		tests := []struct {
			ret      interface{}
			expected interface{}
		}{
			{ret1, value},
			{ret2, true},
			{ret3, false},
			{leveldb.IsNotFound(ret4), true},
		}

		for _, tt := range tests {
			assert.Equal(t, tt.expected, tt.ret)
		}
	}
}

func TestLevelDBBatch(t *testing.T) {
	var (
		key   = []byte("123")
		value = []byte("456")
	)
	lvldb, err := New(t.TempDir(), Options{16, 16})
	assert.Nil(t, err)
	defer lvldb.Close()

	dbBatch := lvldb.NewBatch()

	err = dbBatch.Put(key, value)
	assert.Nil(t, err)

	ret1 := dbBatch.Len()
	err = dbBatch.Write()
	assert.Nil(t, err)

	ret2, err := lvldb.Get(key)
	assert.Nil(t, err)

	dbBatch = dbBatch.NewBatch()
	err = dbBatch.Put(key, value)
	assert.Nil(t, err)

	err = dbBatch.Delete(key)
	assert.Nil(t, err)

	tests := []struct {
		ret      interface{}
		expected interface{}
	}{
		{ret1, 1},
		{ret2, value},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.ret)
	}
}
