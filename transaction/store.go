/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package transaction

import "container/heap"

// fifoStore keeps units in arrival order.
type fifoStore struct {
	txs []*Transaction
}

func (s *fifoStore) push(tx *Transaction) { s.txs = append(s.txs, tx) }

func (s *fifoStore) pop() *Transaction {
	var tx = s.txs[0]
	s.txs[0] = nil
	s.txs = s.txs[1:]
	return tx
}

func (s *fifoStore) remove(tx *Transaction) bool {
	for i, t := range s.txs {
		if t == tx {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return true
		}
	}
	return false
}

func (s *fifoStore) items() []*Transaction { return append([]*Transaction(nil), s.txs...) }
func (s *fifoStore) len() int { return len(s.txs) }

// priorityStore is a heap ordered by priority, then by arrival.
type priorityStore struct {
	h   entryHeap
	seq uint64
}

type entry struct {
	tx    *Transaction
	seq   uint64
	index int
}

func (s *priorityStore) push(tx *Transaction) {
	s.seq++
	heap.Push(&s.h, &entry{tx: tx, seq: s.seq})
}

func (s *priorityStore) pop() *Transaction {
	return heap.Pop(&s.h).(*entry).tx
}

func (s *priorityStore) remove(tx *Transaction) bool {
	for _, e := range s.h {
		if e.tx == tx {
			heap.Remove(&s.h, e.index)
			return true
		}
	}
	return false
}

func (s *priorityStore) items() []*Transaction {
	var out = make([]*Transaction, len(s.h))
	for i, e := range s.h {
		out[i] = e.tx
	}
	return out
}

func (s *priorityStore) len() int { return len(s.h) }

// entryHeap implements heap.Interface.
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].tx.priority != h[j].tx.priority {
		return h[i].tx.priority > h[j].tx.priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	var e = x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	var old = *h
	var n = len(old)
	var e = old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
