package command

import (
	"github.com/rpcpool/zumic/internal/acl"
	"github.com/rpcpool/zumic/internal/storage"
	"github.com/rpcpool/zumic/internal/value"
	"github.com/rpcpool/zumic/internal/wire"
	"github.com/rpcpool/zumic/internal/zerr"
)

func init() {
	register(&Spec{Name: "SETBIT", Arity: 4, Category: acl.CatWrite, Parse: parseSetBit})
	register(&Spec{Name: "GETBIT", Arity: 3, Category: acl.CatRead, Parse: parseGetBit})
	register(&Spec{Name: "BITCOUNT", Arity: -2, Category: acl.CatRead, Parse: parseBitCount})
}

func asBitmap(cur value.Value, exists bool) (value.Bitmap, error) {
	if !exists {
		return value.NewBitmap(), nil
	}
	b, ok := cur.(value.Bitmap)
	if !ok {
		return value.Bitmap{}, zerr.WrongType(cur.TypeName(), "bitmap")
	}
	return b, nil
}

type setbitCmd struct {
	key string
	idx int
	val bool
}

func parseSetBit(args []string) (Command, error) {
	idx, ok := parseInt64(args[2])
	if !ok || idx < 0 {
		return nil, zerr.New(zerr.KindSyntax, "SETBIT: invalid bit offset "+args[2])
	}
	bit, ok := parseInt64(args[3])
	if !ok || (bit != 0 && bit != 1) {
		return nil, zerr.New(zerr.KindSyntax, "SETBIT: bit value must be 0 or 1")
	}
	return setbitCmd{key: args[1], idx: int(idx), val: bit == 1}, nil
}

func (c setbitCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	var old bool
	err := eng.Mutate(c.key, func(cur value.Value, exists bool) (value.Value, error) {
		b, err := asBitmap(cur, exists)
		if err != nil {
			return nil, err
		}
		old = b.B.GetBit(c.idx)
		b.B.SetBit(c.idx, c.val)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	if old {
		return wire.Integer(1), nil
	}
	return wire.Integer(0), nil
}

type getbitCmd struct {
	key string
	idx int
}

func parseGetBit(args []string) (Command, error) {
	idx, ok := parseInt64(args[2])
	if !ok || idx < 0 {
		return nil, zerr.New(zerr.KindSyntax, "GETBIT: invalid bit offset "+args[2])
	}
	return getbitCmd{key: args[1], idx: int(idx)}, nil
}

func (c getbitCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	v, ok, err := eng.Get(c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return wire.Integer(0), nil
	}
	b, ok := v.(value.Bitmap)
	if !ok {
		return nil, zerr.WrongType(v.TypeName(), "bitmap")
	}
	if b.B.GetBit(c.idx) {
		return wire.Integer(1), nil
	}
	return wire.Integer(0), nil
}

type bitcountCmd struct {
	key        string
	start, end int
	hasRange   bool
}

func parseBitCount(args []string) (Command, error) {
	c := bitcountCmd{key: args[1]}
	if len(args) >= 4 {
		start, ok1 := parseInt64(args[2])
		end, ok2 := parseInt64(args[3])
		if !ok1 || !ok2 {
			return nil, zerr.New(zerr.KindSyntax, "BITCOUNT: invalid range")
		}
		c.start, c.end, c.hasRange = int(start), int(end), true
	}
	return c, nil
}

func (c bitcountCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	v, ok, err := eng.Get(c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return wire.Integer(0), nil
	}
	b, ok := v.(value.Bitmap)
	if !ok {
		return nil, zerr.WrongType(v.TypeName(), "bitmap")
	}
	byteLen := len(b.B.Bytes())
	start, end := 0, byteLen
	if c.hasRange {
		start, end = normalizeByteRange(c.start, c.end, byteLen)
	}
	return wire.Integer(int64(b.B.BitCount(start, end))), nil
}

// normalizeByteRange turns Redis-style inclusive, possibly-negative byte
// offsets into BitCount's half-open [start, end) form.
func normalizeByteRange(start, end, byteLen int) (int, int) {
	if start < 0 {
		start += byteLen
	}
	if end < 0 {
		end += byteLen
	}
	if start < 0 {
		start = 0
	}
	if end >= byteLen {
		end = byteLen - 1
	}
	if start > end {
		return 0, 0
	}
	return start, end + 1
}
