package command

import (
	"github.com/rpcpool/zumic/internal/acl"
	"github.com/rpcpool/zumic/internal/storage"
	"github.com/rpcpool/zumic/internal/value"
	"github.com/rpcpool/zumic/internal/wire"
	"github.com/rpcpool/zumic/internal/zerr"
)

func init() {
	register(&Spec{Name: "LPUSH", Arity: -3, Category: acl.CatWrite, Parse: parseLPush})
	register(&Spec{Name: "RPUSH", Arity: -3, Category: acl.CatWrite, Parse: parseRPush})
	register(&Spec{Name: "LPOP", Arity: 2, Category: acl.CatWrite, Parse: parseLPop})
	register(&Spec{Name: "RPOP", Arity: 2, Category: acl.CatWrite, Parse: parseRPop})
	register(&Spec{Name: "LINDEX", Arity: 3, Category: acl.CatRead, Parse: parseLIndex})
}

func asList(cur value.Value, exists bool) (value.List, error) {
	if !exists {
		return value.NewList(), nil
	}
	l, ok := cur.(value.List)
	if !ok {
		return value.List{}, zerr.WrongType(cur.TypeName(), "list")
	}
	return l, nil
}

type lpushCmd struct {
	key    string
	values []string
}

func parseLPush(args []string) (Command, error) { return lpushCmd{key: args[1], values: args[2:]}, nil }

func (c lpushCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	var n int64
	err := eng.Mutate(c.key, func(cur value.Value, exists bool) (value.Value, error) {
		l, err := asList(cur, exists)
		if err != nil {
			return nil, err
		}
		for _, v := range c.values {
			l.L.PushFront([]byte(v))
		}
		n = int64(l.L.Len())
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return wire.Integer(n), nil
}

type rpushCmd struct {
	key    string
	values []string
}

func parseRPush(args []string) (Command, error) { return rpushCmd{key: args[1], values: args[2:]}, nil }

func (c rpushCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	var n int64
	err := eng.Mutate(c.key, func(cur value.Value, exists bool) (value.Value, error) {
		l, err := asList(cur, exists)
		if err != nil {
			return nil, err
		}
		for _, v := range c.values {
			l.L.PushBack([]byte(v))
		}
		n = int64(l.L.Len())
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return wire.Integer(n), nil
}

type lpopCmd struct{ key string }

func parseLPop(args []string) (Command, error) { return lpopCmd{key: args[1]}, nil }

func (c lpopCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	if _, ok, err := eng.Get(c.key); err != nil {
		return nil, err
	} else if !ok {
		return wire.BinaryString{Null: true}, nil
	}
	var popped []byte
	var had bool
	err := eng.Mutate(c.key, func(cur value.Value, exists bool) (value.Value, error) {
		l, err := asList(cur, exists)
		if err != nil {
			return nil, err
		}
		popped, had = l.L.PopFront()
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	if !had {
		return wire.BinaryString{Null: true}, nil
	}
	return wire.BinaryString{Bytes: popped}, nil
}

type rpopCmd struct{ key string }

func parseRPop(args []string) (Command, error) { return rpopCmd{key: args[1]}, nil }

func (c rpopCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	_, ok, err := eng.Get(c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return wire.BinaryString{Null: true}, nil
	}
	var popped []byte
	var had bool
	err = eng.Mutate(c.key, func(cur value.Value, exists bool) (value.Value, error) {
		l, err := asList(cur, exists)
		if err != nil {
			return nil, err
		}
		popped, had = l.L.PopBack()
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	if !had {
		return wire.BinaryString{Null: true}, nil
	}
	return wire.BinaryString{Bytes: popped}, nil
}

type lindexCmd struct {
	key string
	idx int
}

func parseLIndex(args []string) (Command, error) {
	i, ok := parseInt64(args[2])
	if !ok {
		return nil, zerr.New(zerr.KindSyntax, "LINDEX: invalid index "+args[2])
	}
	return lindexCmd{key: args[1], idx: int(i)}, nil
}

func (c lindexCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	v, ok, err := eng.Get(c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return wire.BinaryString{Null: true}, nil
	}
	l, ok := v.(value.List)
	if !ok {
		return nil, zerr.WrongType(v.TypeName(), "list")
	}
	idx := c.idx
	if idx < 0 {
		idx += l.L.Len()
	}
	b, ok := l.L.Index(idx)
	if !ok {
		return wire.BinaryString{Null: true}, nil
	}
	return wire.BinaryString{Bytes: b}, nil
}
