// Copyright (c) 2025 The layerdb developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package session

import (
	"github.com/layerdb/layerdb/kv"
	"github.com/layerdb/layerdb/log"
)

var logger = log.WithContext("pkg", "session")

// Stack owns an ordered chain of pending layers above a root store and
// drives the push/squash/undo/commit lifecycle. Each pushed layer gets the
// next revision number; undo and squash hand it back.
//
// The stack assumes a single logical writer. Concurrent use requires
// external locking.
type Stack struct {
	rev     int64
	layers  []*Layer // oldest first
	head    *rootStore
	dataDir string
}

// rootStore bridges a kv store into the Store surface layers expect. Writes
// go through put, which is swapped for a batch while a commit fold is in
// flight.
type rootStore struct {
	db  kv.GetPutter
	put kv.Putter
}

func (r *rootStore) Read(key []byte) ([]byte, bool, error) {
	value, err := r.db.Get(key)
	if err != nil {
		if r.db.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (r *rootStore) Write(key, value []byte) error {
	return r.put.Put(key, value)
}

func (r *rootStore) Erase(key []byte) error {
	return r.put.Delete(key)
}

// New creates a stack over the given root store. If dataDir is non-empty, a
// snapshot left by a previous clean shutdown is restored (and consumed)
// right away; pass "" to disable persistence entirely.
//
// The root store is not owned by the stack and must outlive it.
func New(store kv.GetPutter, dataDir string) (*Stack, error) {
	s := &Stack{
		head:    &rootStore{db: store, put: store},
		dataDir: dataDir,
	}
	if err := s.Open(); err != nil {
		return nil, err
	}
	return s, nil
}

// topStore returns the store a newly pushed layer delegates to.
func (s *Stack) topStore() Store {
	if n := len(s.layers); n > 0 {
		return s.layers[n-1]
	}
	return s.head
}

// Push begins a new speculative layer on top of the stack and assigns it the
// next revision.
func (s *Stack) Push() {
	s.layers = append(s.layers, newLayer(s.topStore()))
	s.rev++

	metricOpCount().AddWithLabel(1, map[string]string{"op": "push"})
	metricLayerDepth().Set(int64(len(s.layers)))
}

// Squash merges the top layer into its parent (the layer below, or the root
// store when it is the only layer) and drops it. No-op on an empty stack.
func (s *Stack) Squash() error {
	if len(s.layers) == 0 {
		return nil
	}
	top := s.layers[len(s.layers)-1]
	if err := top.Commit(); err != nil {
		return err
	}
	top.Detach()
	s.layers = s.layers[:len(s.layers)-1]
	s.rev--

	metricOpCount().AddWithLabel(1, map[string]string{"op": "squash"})
	metricLayerDepth().Set(int64(len(s.layers)))
	return nil
}

// Undo discards the top layer's pending changes. No-op on an empty stack.
func (s *Stack) Undo() {
	if len(s.layers) == 0 {
		return
	}
	s.layers[len(s.layers)-1].Detach()
	s.layers = s.layers[:len(s.layers)-1]
	s.rev--

	metricOpCount().AddWithLabel(1, map[string]string{"op": "undo"})
	metricLayerDepth().Set(int64(len(s.layers)))
}

// Commit permanently folds the oldest layers, up to and including the given
// revision, into the root store. The revision is clamped to the newest
// pending one; revisions at or below the oldest retained one have already
// been committed, so asking for them again is a no-op.
//
// The root-store leg of the fold goes through a write batch, so a partial
// fold is never visible in the root store.
func (s *Stack) Commit(revision int64) error {
	if len(s.layers) == 0 {
		return nil
	}

	if revision > s.rev {
		revision = s.rev
	}
	initial := s.rev - int64(len(s.layers)) + 1
	if initial > revision {
		return nil
	}

	idx := int(revision - initial)

	batch := s.head.db.NewBatch()
	s.head.put = batch
	defer func() { s.head.put = s.head.db }()

	// fold top of range first, so each layer's records win over the ones
	// below, and the bottom layer carries the union into the root store
	for i := idx; i >= 0; i-- {
		if err := s.layers[i].Commit(); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	metricCommittedKeys().Add(int64(batch.Len()))

	for i := 0; i <= idx; i++ {
		s.layers[i].Detach()
	}
	s.layers = append([]*Layer(nil), s.layers[idx+1:]...)
	if len(s.layers) > 0 {
		s.layers[0].Attach(s.head)
	}

	metricOpCount().AddWithLabel(1, map[string]string{"op": "commit"})
	metricLayerDepth().Set(int64(len(s.layers)))
	return nil
}

// Revision returns the revision assigned to the most recently pushed layer,
// or the baseline when the stack is empty.
func (s *Stack) Revision() int64 {
	return s.rev
}

// SetRevision establishes a new baseline revision. It only applies while the
// stack is empty and never rewinds; otherwise it is a silent no-op.
func (s *Stack) SetRevision(revision int64) {
	if len(s.layers) != 0 {
		return
	}
	if revision <= s.rev {
		return
	}
	s.rev = revision
}

// Empty reports whether no layers are pending.
func (s *Stack) Empty() bool {
	return len(s.layers) == 0
}

// Len returns the number of pending layers.
func (s *Stack) Len() int {
	return len(s.layers)
}

// Top returns a ref to the newest pending layer, or to the root store when
// the stack is empty.
func (s *Stack) Top() Ref {
	if n := len(s.layers); n > 0 {
		return Ref{layer: s.layers[n-1]}
	}
	return Ref{root: s.head}
}

// Bottom returns a ref to the oldest pending layer (the next to be
// committed), or to the root store when the stack is empty.
func (s *Stack) Bottom() Ref {
	if len(s.layers) > 0 {
		return Ref{layer: s.layers[0]}
	}
	return Ref{root: s.head}
}

// Ref is a tagged reference to either a pending layer or the root store.
// Both shapes expose the same read/write/erase surface.
type Ref struct {
	layer *Layer
	root  Store
}

// Layer returns the referenced layer, or nil when the ref points at the
// root store.
func (r Ref) Layer() *Layer {
	return r.layer
}

// IsRoot reports whether the ref points at the root store.
func (r Ref) IsRoot() bool {
	return r.layer == nil
}

func (r Ref) target() Store {
	if r.layer != nil {
		return r.layer
	}
	return r.root
}

// Read reads through the referenced store.
func (r Ref) Read(key []byte) ([]byte, bool, error) {
	return r.target().Read(key)
}

// Write writes through the referenced store.
func (r Ref) Write(key, value []byte) error {
	return r.target().Write(key, value)
}

// Erase erases through the referenced store.
func (r Ref) Erase(key []byte) error {
	return r.target().Erase(key)
}
