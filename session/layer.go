// Copyright (c) 2025 The layerdb developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package session

import (
	"sort"

	"github.com/pkg/errors"
)

// Store is the surface a layer requires from its parent, and the surface it
// offers to layers stacked on top of it. The bottom of every chain is the
// root store.
type Store interface {
	// Read value for given key.
	// The second return value indicates whether the key is present.
	Read(key []byte) (value []byte, found bool, err error)
	Write(key, value []byte) error
	Erase(key []byte) error
}

var _ Store = (*Layer)(nil)

// Layer is a copy-on-write overlay capturing writes and deletes relative to
// a single parent.
type Layer struct {
	parent  Store
	writes  map[string][]byte
	deletes map[string]struct{}
}

func newLayer(parent Store) *Layer {
	return &Layer{
		parent:  parent,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

// Attach sets the parent the layer delegates reads to and folds into.
func (l *Layer) Attach(parent Store) {
	l.parent = parent
}

// Detach clears the parent reference. While detached, reads of keys the
// layer does not hold itself report not found.
func (l *Layer) Detach() {
	l.parent = nil
}

// Read returns the layer's own record for the key if it has one, otherwise
// delegates to the parent.
func (l *Layer) Read(key []byte) ([]byte, bool, error) {
	k := string(key)
	if _, ok := l.deletes[k]; ok {
		return nil, false, nil
	}
	if v, ok := l.writes[k]; ok {
		return v, true, nil
	}
	if l.parent == nil {
		return nil, false, nil
	}
	return l.parent.Read(key)
}

// Write records an update of the key, canceling any pending delete of it.
func (l *Layer) Write(key, value []byte) error {
	k := string(key)
	delete(l.deletes, k)
	l.writes[k] = value
	return nil
}

// Erase records a delete of the key, canceling any pending update of it.
func (l *Layer) Erase(key []byte) error {
	k := string(key)
	delete(l.writes, k)
	l.deletes[k] = struct{}{}
	return nil
}

// Commit folds the layer's pending changes into its parent. Updates are
// replayed before deletes, through the parent's own Write/Erase, so this
// layer's records win over whatever the parent held.
func (l *Layer) Commit() error {
	if l.parent == nil {
		return errors.New("commit detached layer")
	}
	for _, key := range l.UpdatedKeys() {
		if err := l.parent.Write(key, l.writes[string(key)]); err != nil {
			return err
		}
	}
	for _, key := range l.DeletedKeys() {
		if err := l.parent.Erase(key); err != nil {
			return err
		}
	}
	return nil
}

// UpdatedKeys returns the keys the layer has updated, sorted.
func (l *Layer) UpdatedKeys() [][]byte {
	return sortedKeys(l.writes)
}

// DeletedKeys returns the keys the layer has deleted, sorted.
func (l *Layer) DeletedKeys() [][]byte {
	return sortedKeys(l.deletes)
}

func sortedKeys[V any](m map[string]V) [][]byte {
	strs := make([]string, 0, len(m))
	for k := range m {
		strs = append(strs, k)
	}
	sort.Strings(strs)

	keys := make([][]byte, len(strs))
	for i, k := range strs {
		keys[i] = []byte(k)
	}
	return keys
}
