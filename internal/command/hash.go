package command

import (
	"github.com/rpcpool/zumic/internal/acl"
	"github.com/rpcpool/zumic/internal/sds"
	"github.com/rpcpool/zumic/internal/storage"
	"github.com/rpcpool/zumic/internal/value"
	"github.com/rpcpool/zumic/internal/wire"
	"github.com/rpcpool/zumic/internal/zerr"
)

func init() {
	register(&Spec{Name: "HSET", Arity: -4, Category: acl.CatWrite, Parse: parseHSet})
	register(&Spec{Name: "HGET", Arity: 3, Category: acl.CatRead, Parse: parseHGet})
	register(&Spec{Name: "HDEL", Arity: -3, Category: acl.CatWrite, Parse: parseHDel})
}

func asHash(cur value.Value, exists bool) (value.Hash, error) {
	if !exists {
		return value.NewHash(), nil
	}
	h, ok := cur.(value.Hash)
	if !ok {
		return value.Hash{}, zerr.WrongType(cur.TypeName(), "hash")
	}
	return h, nil
}

type hsetCmd struct {
	key    string
	fields []string // field, value, field, value, ...
}

func parseHSet(args []string) (Command, error) {
	rest := args[2:]
	if len(rest)%2 != 0 {
		return nil, zerr.WrongArgCount("HSET", "an even number of field/value pairs")
	}
	return hsetCmd{key: args[1], fields: rest}, nil
}

func (c hsetCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	added := int64(0)
	err := eng.Mutate(c.key, func(cur value.Value, exists bool) (value.Value, error) {
		h, err := asHash(cur, exists)
		if err != nil {
			return nil, err
		}
		for i := 0; i < len(c.fields); i += 2 {
			field, val := c.fields[i], c.fields[i+1]
			if _, had := h.D.Get(field); !had {
				added++
			}
			h.D.Set(field, sds.FromString(val))
		}
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return wire.Integer(added), nil
}

type hgetCmd struct {
	key   string
	field string
}

func parseHGet(args []string) (Command, error) { return hgetCmd{key: args[1], field: args[2]}, nil }

func (c hgetCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	v, ok, err := eng.Get(c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return wire.BinaryString{Null: true}, nil
	}
	h, ok := v.(value.Hash)
	if !ok {
		return nil, zerr.WrongType(v.TypeName(), "hash")
	}
	f, ok := h.D.Get(c.field)
	if !ok {
		return wire.BinaryString{Null: true}, nil
	}
	return wire.BinaryString{Bytes: f.Bytes()}, nil
}

type hdelCmd struct {
	key    string
	fields []string
}

func parseHDel(args []string) (Command, error) { return hdelCmd{key: args[1], fields: args[2:]}, nil }

func (c hdelCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	// A missing key has nothing to delete; Mutate's callback always writes
	// back its return value, so a nonexistent key is short-circuited here
	// rather than risking Mutate planting a nil-valued entry for it.
	if _, ok, err := eng.Get(c.key); err != nil {
		return nil, err
	} else if !ok {
		return wire.Integer(0), nil
	}

	removed := int64(0)
	err := eng.Mutate(c.key, func(cur value.Value, exists bool) (value.Value, error) {
		h, err := asHash(cur, exists)
		if err != nil {
			return nil, err
		}
		for _, f := range c.fields {
			if _, had := h.D.Delete(f); had {
				removed++
			}
		}
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return wire.Integer(removed), nil
}
