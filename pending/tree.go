// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pending

import (
	"github.com/bitmark-inc/batchpool/digest"
)

// balanced tree ordered by timestamp, the by-time half of the store
//
// keys are the assigned (collision-free) timestamps, values the reduced
// hash of the owning entry; unexported so both indices can only change
// together through the Store
type timeTree struct {
	root  *timeNode
	count int
}

type timeNode struct {
	key     uint64
	value   digest.Digest
	left    *timeNode
	right   *timeNode
	up      *timeNode
	balance int // -1, 0, +1
}

func newTimeTree() *timeTree {
	return &timeTree{}
}

// number of entries currently in the tree
func (tree *timeTree) size() int {
	return tree.count
}

// true iff a node with this timestamp exists
func (tree *timeTree) has(key uint64) bool {
	p := tree.root
	for p != nil {
		switch {
		case key < p.key:
			p = p.left
		case key > p.key:
			p = p.right
		default:
			return true
		}
	}
	return false
}

// lookup the stored reduced hash for a timestamp
func (tree *timeTree) get(key uint64) (digest.Digest, bool) {
	p := tree.root
	for p != nil {
		switch {
		case key < p.key:
			p = p.left
		case key > p.key:
			p = p.right
		default:
			return p.value, true
		}
	}
	return digest.Digest{}, false
}

// the node with the lowest timestamp
func (tree *timeTree) first() *timeNode {
	p := tree.root
	if nil == p {
		return nil
	}
	for p.left != nil {
		p = p.left
	}
	return p
}

// in-order successor
func (p *timeNode) next() *timeNode {
	if p.right != nil {
		q := p.right
		for q.left != nil {
			q = q.left
		}
		return q
	}
	key := p.key
	for {
		p = p.up
		if nil == p {
			return nil
		}
		if p.key > key {
			return p
		}
	}
}

// insert a new node, false if the timestamp is already taken
func (tree *timeTree) insert(key uint64, value digest.Digest) bool {
	root, added, _ := insertNode(key, value, tree.root)
	tree.root = root
	if added {
		tree.count += 1
	}
	return added
}

// internal routine for insert
func insertNode(key uint64, value digest.Digest, p *timeNode) (*timeNode, bool, bool) {
	h := false
	if nil == p { // insert new node
		h = true
		p = &timeNode{key: key, value: value}
		return p, true, h
	}
	added := false
	switch {
	case key < p.key:
		p.left, added, h = insertNode(key, value, p.left)
		if h {
			if nil != p.left {
				p.left.up = p
			}

			// left branch has grown
			if 1 == p.balance {
				p.balance = 0
				h = false
			} else if 0 == p.balance {
				p.balance = -1
			} else { // balance == -1, rebalance
				p1 := p.left
				if -1 == p1.balance {
					// single LL rotation
					p.left = p1.right
					p1.right = p

					p.balance = 0

					p1.up = p.up
					p.up = p1
					if nil != p.left {
						p.left.up = p
					}

					p = p1
				} else {
					// double LR rotation
					p2 := p1.right
					p1.right = p2.left
					p2.left = p1
					p.left = p2.right
					p2.right = p
					if -1 == p2.balance {
						p.balance = 1
					} else {
						p.balance = 0
					}
					if +1 == p2.balance {
						p1.balance = -1
					} else {
						p1.balance = 0
					}

					if nil != p.left {
						p.left.up = p
					}
					if nil != p1.right {
						p1.right.up = p1
					}
					p2.up = p.up
					p.up = p2
					p1.up = p2

					p = p2
				}
				p.balance = 0
				h = false
			}
		}
	case key > p.key:
		p.right, added, h = insertNode(key, value, p.right)
		if h {
			if nil != p.right {
				p.right.up = p
			}

			// right branch has grown
			if -1 == p.balance {
				p.balance = 0
				h = false
			} else if 0 == p.balance {
				p.balance = 1
			} else { // balance = +1, rebalance
				p1 := p.right
				if 1 == p1.balance {
					// single RR rotation
					p.right = p1.left
					p1.left = p

					p.balance = 0

					p1.up = p.up
					p.up = p1
					if nil != p.right {
						p.right.up = p
					}

					p = p1
				} else {
					// double RL rotation
					p2 := p1.left
					p1.left = p2.right
					p2.right = p1
					p.right = p2.left
					p2.left = p
					if +1 == p2.balance {
						p.balance = -1
					} else {
						p.balance = 0
					}
					if -1 == p2.balance {
						p1.balance = 1
					} else {
						p1.balance = 0
					}

					if nil != p.right {
						p.right.up = p
					}
					if nil != p1.left {
						p1.left.up = p1
					}
					p2.up = p.up
					p.up = p2
					p1.up = p2

					p = p2
				}
				p.balance = 0
				h = false
			}
		}
	default:
		// timestamps are unique store-wide, the caller probes first
	}
	return p, added, h
}

// remove a node by timestamp, true iff it was present
func (tree *timeTree) remove(key uint64) bool {
	removed, _ := deleteNode(key, &tree.root)
	if removed {
		tree.count -= 1
	}
	return removed
}

// internal delete routine
func deleteNode(key uint64, pp **timeNode) (bool, bool) {
	h := false
	if nil == *pp { // key not in tree
		return false, h
	}
	removed := false
	switch {
	case key < (*pp).key:
		removed, h = deleteNode(key, &(*pp).left)
		if h {
			h = balanceLeft(pp)
		}
	case key > (*pp).key:
		removed, h = deleteNode(key, &(*pp).right)
		if h {
			h = balanceRight(pp)
		}
	default: // found: delete p
		q := *pp
		if nil == q.right {
			if nil != q.left {
				q.left.up = q.up
			}
			*pp = q.left
			h = true
		} else if nil == q.left {
			if nil != q.right {
				q.right.up = q.up
			}
			*pp = q.right
			h = true
		} else {
			h = del(pp, &q.left)
			(*pp).left = q.left // p has changed, but q.left has left link value
			if h {
				h = balanceLeft(pp)
			}
		}
		removed = true
	}
	return removed, h
}

// delete: rearrange deleted node
func del(qq **timeNode, rr **timeNode) bool {
	h := false
	if nil != (*rr).right {
		h = del(qq, &(*rr).right)
		if h {
			h = balanceRight(rr)
		}
	} else {
		q := *qq
		r := *rr
		rl := r.left
		if nil != rl {
			rl.up = r.up
		}

		if r != q.left {
			r.left = q.left
		}
		r.right = q.right
		r.up = q.up
		r.balance = q.balance

		if nil != r.right {
			r.right.up = r
		}
		if nil != r.left {
			r.left.up = r
		}

		*qq = r
		*rr = rl

		h = true
	}
	return h
}

// delete: tree balancer
func balanceLeft(pp **timeNode) bool {
	h := true
	p := *pp
	// h; left branch has shrunk
	if -1 == p.balance {
		p.balance = 0
	} else if 0 == p.balance {
		p.balance = 1
		h = false
	} else { // balance = 1, rebalance
		p1 := p.right
		if p1.balance >= 0 {
			// single RR rotation
			p.right = p1.left
			p1.left = p
			if 0 == p1.balance {
				p.balance = 1
				p1.balance = -1
				h = false
			} else {
				p.balance = 0
				p1.balance = 0
			}

			p1.up = p.up
			p.up = p1
			if nil != p.right {
				p.right.up = p
			}

			*pp = p1
		} else {
			// double RL rotation
			p2 := p1.left
			p1.left = p2.right
			p2.right = p1
			p.right = p2.left
			p2.left = p
			if +1 == p2.balance {
				p.balance = -1
			} else {
				p.balance = 0
			}
			if -1 == p2.balance {
				p1.balance = 1
			} else {
				p1.balance = 0
			}
			p2.balance = 0

			p2.up = p.up
			if nil != p.right {
				p.right.up = p
			}
			if nil != p1.left {
				p1.left.up = p1
			}
			p.up = p2
			p1.up = p2

			*pp = p2
		}
	}
	return h
}

// delete: tree balancer
func balanceRight(pp **timeNode) bool {
	h := true
	p := *pp
	// h; right branch has shrunk
	if 1 == p.balance {
		p.balance = 0
	} else if 0 == p.balance {
		p.balance = -1
		h = false
	} else { // balance = -1, rebalance
		p1 := p.left
		if p1.balance <= 0 {
			// single LL rotation
			p.left = p1.right
			p1.right = p
			if 0 == p1.balance {
				p.balance = -1
				p1.balance = 1
				h = false
			} else {
				p.balance = 0
				p1.balance = 0
			}

			p1.up = p.up
			p.up = p1
			if nil != p.left {
				p.left.up = p
			}

			*pp = p1
		} else {
			// double LR rotation
			p2 := p1.right
			p1.right = p2.left
			p2.left = p1
			p.left = p2.right
			p2.right = p
			if -1 == p2.balance {
				p.balance = 1
			} else {
				p.balance = 0
			}
			if +1 == p2.balance {
				p1.balance = -1
			} else {
				p1.balance = 0
			}
			p2.balance = 0

			p2.up = p.up
			if nil != p.left {
				p.left.up = p
			}
			if nil != p1.right {
				p1.right.up = p1
			}
			p.up = p2
			p1.up = p2

			*pp = p2
		}
	}
	return h
}
