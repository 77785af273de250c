package command

import (
	"github.com/rpcpool/zumic/internal/acl"
	"github.com/rpcpool/zumic/internal/storage"
	"github.com/rpcpool/zumic/internal/wire"
)

func init() {
	register(&Spec{Name: "PING", Arity: -1, Category: acl.CatRead, Parse: parsePing})
}

type pingCmd struct{ msg string }

func parsePing(args []string) (Command, error) {
	if len(args) >= 2 {
		return pingCmd{msg: args[1]}, nil
	}
	return pingCmd{}, nil
}

func (c pingCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	if c.msg != "" {
		return wire.InlineString(c.msg), nil
	}
	return wire.InlineString("PONG"), nil
}
