package command

import (
	"strconv"

	"github.com/rpcpool/zumic/internal/acl"
	"github.com/rpcpool/zumic/internal/storage"
	"github.com/rpcpool/zumic/internal/value"
	"github.com/rpcpool/zumic/internal/wire"
	"github.com/rpcpool/zumic/internal/zerr"
)

func init() {
	register(&Spec{Name: "ZADD", Arity: -4, Category: acl.CatWrite, Parse: parseZAdd})
	register(&Spec{Name: "ZSCORE", Arity: 3, Category: acl.CatRead, Parse: parseZScore})
}

func asZSet(cur value.Value, exists bool) (value.ZSet, error) {
	if !exists {
		return value.NewZSet(), nil
	}
	z, ok := cur.(value.ZSet)
	if !ok {
		return value.ZSet{}, zerr.WrongType(cur.TypeName(), "zset")
	}
	return z, nil
}

// zsetAdd sets member's score, keeping the Scores dict and the ordering
// skiplist in lockstep: a reinsert under a changed score first removes the
// stale skiplist entry under the old key.
func zsetAdd(z value.ZSet, member string, score float64) bool {
	old, had := z.Scores.Get(member)
	if had {
		z.Order.Remove(value.ZSetKey{Score: old, Member: member})
	}
	z.Scores.Set(member, score)
	z.Order.Insert(value.ZSetKey{Score: score, Member: member}, member)
	return !had
}

type zaddCmd struct {
	key   string
	pairs []struct {
		member string
		score  float64
	}
}

func parseZAdd(args []string) (Command, error) {
	rest := args[2:]
	if len(rest)%2 != 0 {
		return nil, zerr.WrongArgCount("ZADD", "score/member pairs")
	}
	cmd := zaddCmd{key: args[1]}
	for i := 0; i < len(rest); i += 2 {
		score, err := strconv.ParseFloat(rest[i], 64)
		if err != nil {
			return nil, zerr.New(zerr.KindSyntax, "ZADD: invalid score "+rest[i])
		}
		cmd.pairs = append(cmd.pairs, struct {
			member string
			score  float64
		}{member: rest[i+1], score: score})
	}
	return cmd, nil
}

func (c zaddCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	added := int64(0)
	err := eng.Mutate(c.key, func(cur value.Value, exists bool) (value.Value, error) {
		z, err := asZSet(cur, exists)
		if err != nil {
			return nil, err
		}
		for _, p := range c.pairs {
			if zsetAdd(z, p.member, p.score) {
				added++
			}
		}
		return z, nil
	})
	if err != nil {
		return nil, err
	}
	return wire.Integer(added), nil
}

type zscoreCmd struct {
	key    string
	member string
}

func parseZScore(args []string) (Command, error) { return zscoreCmd{key: args[1], member: args[2]}, nil }

func (c zscoreCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	v, ok, err := eng.Get(c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return wire.BinaryString{Null: true}, nil
	}
	z, ok := v.(value.ZSet)
	if !ok {
		return nil, zerr.WrongType(v.TypeName(), "zset")
	}
	score, ok := z.Scores.Get(c.member)
	if !ok {
		return wire.BinaryString{Null: true}, nil
	}
	return wire.Float(score), nil
}
