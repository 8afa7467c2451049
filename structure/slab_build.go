package structure

import (
	"slices"

	"github.com/holiman/uint256"
)

// BuildSlab lays out the given leaves as a critbit tree in a fresh slab with
// capacity node slots. Slots left over are chained into the free list. Leaves
// with duplicate keys keep the first occurrence.
//
// A decoded slab is never modified; BuildSlab only produces new snapshots, for
// example to simulate the remote program or to create fixtures.
func BuildSlab(leaves []LeafNode, capacity int) *Slab {
	sorted := slices.Clone(leaves)
	slices.SortStableFunc(sorted, func(a, b LeafNode) int {
		return a.Key.Cmp(&b.Key)
	})
	sorted = slices.CompactFunc(sorted, func(a, b LeafNode) bool {
		return a.Key.Eq(&b.Key)
	})

	b := &slabBuilder{}
	if len(sorted) > 0 {
		b.build(sorted)
	}

	used := len(b.nodes)
	if capacity < used {
		capacity = used
	}

	slab := &Slab{
		Header: SlabHeader{
			BumpIndex: uint32(used),
			LeafCount: uint32(len(sorted)),
		},
		Nodes: make([]Node, capacity),
	}
	copy(slab.Nodes, b.nodes)

	// chain the spare slots: Free -> Free -> ... -> LastFree
	if free := capacity - used; free > 0 {
		slab.Header.FreeListLen = uint32(free)
		slab.Header.FreeListHead = uint32(used)
		slab.Header.BumpIndex = uint32(capacity)
		for i := used; i < capacity-1; i++ {
			slab.Nodes[i] = Node{Tag: TagFree, Free: FreeNode{Next: uint32(i + 1)}}
		}
		slab.Nodes[capacity-1] = Node{Tag: TagLastFree}
	}

	return slab
}

type slabBuilder struct {
	nodes []Node
}

// build places sorted, distinct leaves and returns the index of their subtree.
// Inner nodes are placed before their children, so the root lands at index 0.
func (b *slabBuilder) build(leaves []LeafNode) uint32 {
	idx := uint32(len(b.nodes))
	if len(leaves) == 1 {
		b.nodes = append(b.nodes, Node{Tag: TagLeaf, Leaf: leaves[0]})
		return idx
	}

	first, last := leaves[0].Key, leaves[len(leaves)-1].Key
	prefixLen := commonPrefixLen(&first, &last)
	split, _ := slices.BinarySearchFunc(leaves, 1, func(l LeafNode, target int) int {
		return critBit(&l.Key, prefixLen) - target
	})

	b.nodes = append(b.nodes, Node{Tag: TagInner, Inner: InnerNode{PrefixLen: prefixLen, Key: first}})
	left := b.build(leaves[:split])
	right := b.build(leaves[split:])
	b.nodes[idx].Inner.Children = [2]uint32{left, right}
	return idx
}

func commonPrefixLen(a, b *uint256.Int) uint32 {
	var diff uint256.Int
	diff.Xor(a, b)
	return uint32(keyBits - diff.BitLen())
}

// LeafKey packs a price and sequence number into an ask leaf key.
func LeafKey(priceLots, seq uint64) uint256.Int {
	return uint256.Int{seq, priceLots, 0, 0}
}

// BidLeafKey packs a price and sequence number into a bid leaf key. The
// sequence is stored inverted so that a descending walk meets older orders
// first within a price.
func BidLeafKey(priceLots, seq uint64) uint256.Int {
	return uint256.Int{^seq, priceLots, 0, 0}
}
