// Package value defines the polymorphic value model: a closed tagged sum
// of the container types each command operates on. Dispatch over variants
// is a type switch over a small, closed set of concrete types implementing
// the Value interface — no open-world subtyping is needed, matching the
// "tagged sum, not subtyping" design note.
package value

import (
	"github.com/rpcpool/zumic/internal/bitmap"
	"github.com/rpcpool/zumic/internal/dict"
	"github.com/rpcpool/zumic/internal/hll"
	"github.com/rpcpool/zumic/internal/intset"
	"github.com/rpcpool/zumic/internal/quicklist"
	"github.com/rpcpool/zumic/internal/sds"
	"github.com/rpcpool/zumic/internal/skiplist"
)

// Tag identifies a Value's concrete variant, matching the wire byte used
// by the snapshot/AOF codec.
type Tag byte

const (
	TagStr    Tag = 0x01
	TagInt    Tag = 0x02
	TagFloat  Tag = 0x03
	TagNull   Tag = 0x04
	TagList   Tag = 0x05
	TagHash   Tag = 0x06
	TagZSet   Tag = 0x07
	TagSet    Tag = 0x08
	TagHLL    Tag = 0x09
	TagStream Tag = 0x0A
	TagBitmap Tag = 0x0B // own tag, per spec.md's "implementer discretion"
)

// Value is implemented by every concrete variant.
type Value interface {
	Tag() Tag
	TypeName() string
}

// Str wraps a byte string.
type Str struct{ S *sds.Sds }

func (Str) Tag() Tag          { return TagStr }
func (Str) TypeName() string  { return "string" }
func NewStr(s string) Str     { return Str{S: sds.FromString(s)} }
func NewStrBytes(b []byte) Str { return Str{S: sds.FromBytes(b)} }

// Int wraps a signed 64-bit integer.
type Int struct{ N int64 }

func (Int) Tag() Tag         { return TagInt }
func (Int) TypeName() string { return "integer" }

// Float wraps an IEEE-754 double. NaN is normalized to +Inf on ingress per
// spec.md's "NaN normalized on ingress" invariant.
type Float struct{ F float64 }

func (Float) Tag() Tag         { return TagFloat }
func (Float) TypeName() string { return "float" }

// Null represents the absence of a value.
type Null struct{}

func (Null) Tag() Tag         { return TagNull }
func (Null) TypeName() string { return "null" }

// List wraps a quicklist of byte strings.
type List struct{ L *quicklist.QuickList }

func (List) Tag() Tag         { return TagList }
func (List) TypeName() string { return "list" }

func NewList() List { return List{L: quicklist.New(0)} }

// Hash wraps a dict from field name to byte-string value.
type Hash struct{ D *dict.Dict[*sds.Sds] }

func (Hash) Tag() Tag         { return TagHash }
func (Hash) TypeName() string { return "hash" }

func NewHash() Hash { return Hash{D: dict.New[*sds.Sds](0)} }

// ZSet wraps a member->score dict plus a skiplist ordered by (score, member)
// for range queries; the two must be updated atomically per write (see
// zsetAdd in internal/command).
type ZSet struct {
	Scores *dict.Dict[float64]
	Order  *skiplist.SkipList[ZSetKey, string]
}

func (ZSet) Tag() Tag         { return TagZSet }
func (ZSet) TypeName() string { return "zset" }

// ZSetKey orders by score ascending, then member lexically ascending.
type ZSetKey struct {
	Score  float64
	Member string
}

func (a ZSetKey) Compare(b ZSetKey) int {
	switch {
	case a.Score < b.Score:
		return -1
	case a.Score > b.Score:
		return 1
	case a.Member < b.Member:
		return -1
	case a.Member > b.Member:
		return 1
	default:
		return 0
	}
}

func zsetKeyLess(a, b ZSetKey) bool { return a.Compare(b) < 0 }

// NewZSet creates an empty sorted set.
func NewZSet() ZSet {
	return ZSet{
		Scores: dict.New[float64](0),
		Order:  skiplist.New[ZSetKey, string](zsetKeyLess, nil),
	}
}

// Set wraps either an IntSet (all-integer fast path) or a Dict-of-Sds
// (general path). It upgrades from IntSet to Dict on first non-integer
// insert and never downgrades.
type Set struct {
	Ints    *intset.IntSet // non-nil while in integer-only fast path
	General *dict.Dict[struct{}]
}

func (Set) Tag() Tag         { return TagSet }
func (Set) TypeName() string { return "set" }

func NewSet() Set { return Set{Ints: intset.New()} }

// HLL wraps a hll.Register (sparse or dense).
type HLL struct{ Reg hll.Register }

func (HLL) Tag() Tag         { return TagHLL }
func (HLL) TypeName() string { return "hyperloglog" }

func NewHLL(threshold int) HLL { return HLL{Reg: hll.NewSparse(threshold)} }

// StreamEntry is one append-only stream record keyed by (ms timestamp, seq).
type StreamEntry struct {
	MS     int64
	Seq    int64
	Fields map[string][]byte
}

// Stream wraps an append-only sequence of entries. Declared per spec.md
// §3 but left unimplemented at the command-dispatch level (no stream
// family of commands); the container itself exists so snapshot/AOF replay
// can round-trip a stream value written by a future extension.
type Stream struct{ Entries []StreamEntry }

func (Stream) Tag() Tag         { return TagStream }
func (Stream) TypeName() string { return "stream" }

// Bitmap wraps a byte-packed bit array.
type Bitmap struct{ B *bitmap.Bitmap }

func (Bitmap) Tag() Tag         { return TagBitmap }
func (Bitmap) TypeName() string { return "bitmap" }

func NewBitmap() Bitmap { return Bitmap{B: bitmap.New()} }
