package structure

import (
	"errors"
	"fmt"

	"github.com/0x5487/serum-book/layout"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// Slab is a read-only view of a critbit tree stored as a flat node array.
//
// Layout:
//   - 32 byte header (bump index, free list, root, leaf count)
//   - N fixed 64 byte node slots: a 4 byte tag followed by a 60 byte payload
//
// Nodes reference each other by index into the array, the same arena scheme
// a free-list allocator uses: free slots are chained through FreeNode.Next and
// the tail of the chain is a LastFree node.
//
// Leaf keys are 128-bit: the high 64 bits hold the price in lots and the low
// 64 bits an insertion sequence number, so key order is price-time priority.

const (
	SlabHeaderSpan  = 32
	SlabNodeSpan    = 64
	slabPayloadSpan = SlabNodeSpan - 4
	keyBits         = 128
)

// ErrCorruptSlab is returned when tree links point outside the node array or
// into nodes that cannot be part of the tree.
var ErrCorruptSlab = errors.New("slab links are inconsistent")

type NodeTag uint32

const (
	TagUninitialized NodeTag = 0
	TagInner         NodeTag = 1
	TagLeaf          NodeTag = 2
	TagFree          NodeTag = 3
	TagLastFree      NodeTag = 4
)

func (t NodeTag) String() string {
	switch t {
	case TagUninitialized:
		return "uninitialized"
	case TagInner:
		return "inner"
	case TagLeaf:
		return "leaf"
	case TagFree:
		return "free"
	case TagLastFree:
		return "last_free"
	}
	return fmt.Sprintf("tag(%d)", uint32(t))
}

type SlabHeader struct {
	BumpIndex    uint32
	FreeListLen  uint32
	FreeListHead uint32
	Root         uint32
	LeafCount    uint32
}

type InnerNode struct {
	PrefixLen uint32
	Key       uint256.Int
	Children  [2]uint32
}

type LeafNode struct {
	OwnerSlot uint8
	FeeTier   uint8
	Key       uint256.Int
	Owner     solana.PublicKey
	Quantity  uint64
}

// PriceLots is the price encoded in the high half of the key.
func (l *LeafNode) PriceLots() uint64 {
	return l.Key[1]
}

// Sequence is the insertion sequence encoded in the low half of the key.
func (l *LeafNode) Sequence() uint64 {
	return l.Key[0]
}

type FreeNode struct {
	Next uint32
}

// Node is a tagged union; only the payload matching Tag is meaningful.
type Node struct {
	Tag   NodeTag
	Inner InnerNode
	Leaf  LeafNode
	Free  FreeNode
}

type Slab struct {
	Header SlabHeader
	Nodes  []Node
}

// DecodeSlab parses a slab region (header plus node slots). Trailing bytes that
// do not fill a whole node slot are ignored.
func DecodeSlab(buf []byte) (*Slab, error) {
	if len(buf) < SlabHeaderSpan {
		return nil, fmt.Errorf("slab header needs %d bytes, have %d: %w", SlabHeaderSpan, len(buf), layout.ErrBufferTooShort)
	}

	r := layout.NewReader(buf)
	slab := &Slab{}
	slab.Header.BumpIndex = r.Uint32()
	r.Zeros(4)
	slab.Header.FreeListLen = r.Uint32()
	r.Zeros(4)
	slab.Header.FreeListHead = r.Uint32()
	slab.Header.Root = r.Uint32()
	slab.Header.LeafCount = r.Uint32()
	r.Zeros(4)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("slab header: %w", err)
	}

	count := (len(buf) - SlabHeaderSpan) / SlabNodeSpan
	slab.Nodes = make([]Node, count)
	for i := range slab.Nodes {
		r.Seek(SlabHeaderSpan + i*SlabNodeSpan)
		node, err := decodeNode(r)
		if err != nil {
			return nil, fmt.Errorf("slab node %d: %w", i, err)
		}
		slab.Nodes[i] = node
	}

	return slab, nil
}

func decodeNode(r *layout.Reader) (Node, error) {
	node := Node{Tag: NodeTag(r.Uint32())}
	start := r.Offset()

	switch node.Tag {
	case TagUninitialized, TagLastFree:
	case TagInner:
		node.Inner.PrefixLen = r.Uint32()
		node.Inner.Key = r.Uint128()
		node.Inner.Children[0] = r.Uint32()
		node.Inner.Children[1] = r.Uint32()
	case TagLeaf:
		node.Leaf.OwnerSlot = r.Uint8()
		node.Leaf.FeeTier = r.Uint8()
		r.Skip(2)
		node.Leaf.Key = r.Uint128()
		node.Leaf.Owner = r.PublicKey()
		node.Leaf.Quantity = r.Uint64()
	case TagFree:
		node.Free.Next = r.Uint32()
	default:
		return Node{}, fmt.Errorf("%s: %w", node.Tag, layout.ErrInvalidNodeTag)
	}

	// unused payload bytes are present but carry no meaning
	r.Skip(slabPayloadSpan - (r.Offset() - start))
	return node, r.Err()
}

// Encode writes the slab back into its binary form.
func (s *Slab) Encode() []byte {
	w := layout.NewWriter(SlabHeaderSpan + len(s.Nodes)*SlabNodeSpan)
	w.PutUint32(s.Header.BumpIndex)
	w.PutZeros(4)
	w.PutUint32(s.Header.FreeListLen)
	w.PutZeros(4)
	w.PutUint32(s.Header.FreeListHead)
	w.PutUint32(s.Header.Root)
	w.PutUint32(s.Header.LeafCount)
	w.PutZeros(4)

	for i := range s.Nodes {
		node := &s.Nodes[i]
		end := w.Len() + SlabNodeSpan
		w.PutUint32(uint32(node.Tag))
		switch node.Tag {
		case TagInner:
			w.PutUint32(node.Inner.PrefixLen)
			w.PutUint128(node.Inner.Key)
			w.PutUint32(node.Inner.Children[0])
			w.PutUint32(node.Inner.Children[1])
		case TagLeaf:
			w.PutUint8(node.Leaf.OwnerSlot)
			w.PutUint8(node.Leaf.FeeTier)
			w.PutZeros(2)
			w.PutUint128(node.Leaf.Key)
			w.PutPublicKey(node.Leaf.Owner)
			w.PutUint64(node.Leaf.Quantity)
		case TagFree:
			w.PutUint32(node.Free.Next)
		}
		w.PadTo(end)
	}

	return w.Bytes()
}

// Len returns the number of leaves the header declares.
func (s *Slab) Len() int {
	return int(s.Header.LeafCount)
}

// IsEmpty reports whether the tree holds no leaves.
func (s *Slab) IsEmpty() bool {
	return s.Header.LeafCount == 0
}

func (s *Slab) node(idx uint32) (*Node, error) {
	if int(idx) >= len(s.Nodes) {
		return nil, fmt.Errorf("node index %d outside %d slots: %w", idx, len(s.Nodes), ErrCorruptSlab)
	}
	return &s.Nodes[idx], nil
}

// Get finds the leaf with exactly the given key.
func (s *Slab) Get(key uint256.Int) (*LeafNode, bool) {
	if s.IsEmpty() {
		return nil, false
	}

	idx := s.Header.Root
	for steps := 0; steps <= len(s.Nodes); steps++ {
		node, err := s.node(idx)
		if err != nil {
			return nil, false
		}

		switch node.Tag {
		case TagLeaf:
			if node.Leaf.Key.Eq(&key) {
				return &node.Leaf, true
			}
			return nil, false
		case TagInner:
			if !prefixMatches(&node.Inner, &key) {
				return nil, false
			}
			idx = node.Inner.Children[critBit(&key, node.Inner.PrefixLen)]
		default:
			return nil, false
		}
	}

	// more steps than nodes means the links form a cycle
	return nil, false
}

// prefixMatches compares the top PrefixLen bits of key with the inner node key.
func prefixMatches(inner *InnerNode, key *uint256.Int) bool {
	if inner.PrefixLen == 0 {
		return true
	}
	if inner.PrefixLen > keyBits {
		return false
	}
	var diff uint256.Int
	diff.Xor(&inner.Key, key)
	diff.Rsh(&diff, uint(keyBits-inner.PrefixLen))
	return diff.IsZero()
}

// critBit returns the bit of key just below the shared prefix, counting
// from the most significant bit of the 128-bit key.
func critBit(key *uint256.Int, prefixLen uint32) int {
	if prefixLen >= keyBits {
		return 0
	}
	var shifted uint256.Int
	shifted.Rsh(key, uint(keyBits-prefixLen-1))
	return int(shifted[0] & 1)
}

// Items starts a fresh traversal of the leaves in key order.
func (s *Slab) Items(descending bool) *Iterator {
	it := &Iterator{slab: s, descending: descending}
	if !s.IsEmpty() {
		it.stack = append(it.stack, s.Header.Root)
	}
	return it
}

// Leaves collects the whole traversal.
func (s *Slab) Leaves(descending bool) ([]LeafNode, error) {
	leaves := make([]LeafNode, 0, s.Header.LeafCount)
	it := s.Items(descending)
	for it.Next() {
		leaves = append(leaves, *it.Leaf())
	}
	return leaves, it.Err()
}

// Iterator walks a slab depth first with an explicit stack.
//
// For each inner node both children are pushed so that the child to visit
// first ends up on top: child 0 for ascending order, child 1 for descending.
type Iterator struct {
	slab       *Slab
	descending bool
	stack      []uint32
	leaf       *LeafNode
	steps      int
	err        error
}

// Next advances to the next leaf. It returns false when the walk is done or
// failed; check Err to tell the two apart.
func (it *Iterator) Next() bool {
	it.leaf = nil
	for it.err == nil && len(it.stack) > 0 {
		idx := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		it.steps++
		if it.steps > len(it.slab.Nodes) {
			it.fail(fmt.Errorf("walk visited more than %d nodes: %w", len(it.slab.Nodes), ErrCorruptSlab))
			return false
		}

		node, err := it.slab.node(idx)
		if err != nil {
			it.fail(err)
			return false
		}

		switch node.Tag {
		case TagLeaf:
			it.leaf = &node.Leaf
			return true
		case TagInner:
			if it.descending {
				it.stack = append(it.stack, node.Inner.Children[0], node.Inner.Children[1])
			} else {
				it.stack = append(it.stack, node.Inner.Children[1], node.Inner.Children[0])
			}
		default:
			it.fail(fmt.Errorf("node %d is %s: %w", idx, node.Tag, ErrCorruptSlab))
			return false
		}
	}
	return false
}

func (it *Iterator) fail(err error) {
	it.err = err
	it.stack = nil
}

// Leaf returns the current leaf. Valid only after Next returned true.
func (it *Iterator) Leaf() *LeafNode {
	return it.leaf
}

// Err returns the error that stopped the walk, if any.
func (it *Iterator) Err() error {
	return it.err
}
