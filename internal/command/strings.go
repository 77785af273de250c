package command

import (
	"github.com/rpcpool/zumic/internal/acl"
	"github.com/rpcpool/zumic/internal/storage"
	"github.com/rpcpool/zumic/internal/value"
	"github.com/rpcpool/zumic/internal/wire"
	"github.com/rpcpool/zumic/internal/zerr"
)

func init() {
	register(&Spec{Name: "GET", Arity: 2, Category: acl.CatRead, Parse: parseGet})
	register(&Spec{Name: "SET", Arity: 3, Category: acl.CatWrite, Parse: parseSet})
	register(&Spec{Name: "DEL", Arity: -2, Category: acl.CatWrite, Parse: parseDel})
	register(&Spec{Name: "STRLEN", Arity: 2, Category: acl.CatRead, Parse: parseStrlen})
}

type getCmd struct{ key string }

func parseGet(args []string) (Command, error) { return getCmd{key: args[1]}, nil }

func (c getCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	v, ok, err := eng.Get(c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return wire.BinaryString{Null: true}, nil
	}
	s, ok := v.(value.Str)
	if !ok {
		return nil, zerr.WrongType(v.TypeName(), "string")
	}
	return wire.BinaryString{Bytes: s.S.Bytes()}, nil
}

type setCmd struct {
	key string
	val string
}

func parseSet(args []string) (Command, error) { return setCmd{key: args[1], val: args[2]}, nil }

func (c setCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	if err := eng.Set(c.key, value.NewStr(c.val)); err != nil {
		return nil, err
	}
	return wire.InlineString("OK"), nil
}

type delCmd struct{ keys []string }

func parseDel(args []string) (Command, error) { return delCmd{keys: args[1:]}, nil }

func (c delCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	n := int64(0)
	for _, k := range c.keys {
		had, err := eng.Del(k)
		if err != nil {
			return nil, err
		}
		if had {
			n++
		}
	}
	return wire.Integer(n), nil
}

type strlenCmd struct{ key string }

func parseStrlen(args []string) (Command, error) { return strlenCmd{key: args[1]}, nil }

func (c strlenCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	v, ok, err := eng.Get(c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return wire.Integer(0), nil
	}
	s, ok := v.(value.Str)
	if !ok {
		return nil, zerr.WrongType(v.TypeName(), "string")
	}
	return wire.Integer(int64(s.S.Len())), nil
}
