package command

import (
	"github.com/rpcpool/zumic/internal/acl"
	"github.com/rpcpool/zumic/internal/dict"
	"github.com/rpcpool/zumic/internal/storage"
	"github.com/rpcpool/zumic/internal/value"
	"github.com/rpcpool/zumic/internal/wire"
	"github.com/rpcpool/zumic/internal/zerr"
)

func init() {
	register(&Spec{Name: "SADD", Arity: -3, Category: acl.CatWrite, Parse: parseSAdd})
	register(&Spec{Name: "SREM", Arity: -3, Category: acl.CatWrite, Parse: parseSRem})
	register(&Spec{Name: "SISMEMBER", Arity: 3, Category: acl.CatRead, Parse: parseSIsMember})
}

func asSet(cur value.Value, exists bool) (value.Set, error) {
	if !exists {
		return value.NewSet(), nil
	}
	s, ok := cur.(value.Set)
	if !ok {
		return value.Set{}, zerr.WrongType(cur.TypeName(), "set")
	}
	return s, nil
}

// setAdd inserts member into s, upgrading from the IntSet fast path to the
// general Dict path on the first non-integer member, matching value.Set's
// documented never-downgrade rule.
func setAdd(s value.Set, member string) (value.Set, bool) {
	if s.Ints != nil {
		if n, ok := parseInt64(member); ok {
			return s, s.Ints.Insert(n)
		}
		s.General = dict.New[struct{}](0)
		for _, n := range s.Ints.Values() {
			s.General.Set(itoa64(n), struct{}{})
		}
		s.Ints = nil
	}
	_, had := s.General.Get(member)
	s.General.Set(member, struct{}{})
	return s, !had
}

func setRemove(s value.Set, member string) bool {
	if s.Ints != nil {
		n, ok := parseInt64(member)
		if !ok {
			return false
		}
		return s.Ints.Remove(n)
	}
	_, had := s.General.Delete(member)
	return had
}

func setContains(s value.Set, member string) bool {
	if s.Ints != nil {
		n, ok := parseInt64(member)
		if !ok {
			return false
		}
		return s.Ints.Contains(n)
	}
	_, ok := s.General.Get(member)
	return ok
}

type saddCmd struct {
	key     string
	members []string
}

func parseSAdd(args []string) (Command, error) { return saddCmd{key: args[1], members: args[2:]}, nil }

func (c saddCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	added := int64(0)
	err := eng.Mutate(c.key, func(cur value.Value, exists bool) (value.Value, error) {
		s, err := asSet(cur, exists)
		if err != nil {
			return nil, err
		}
		for _, m := range c.members {
			var ok bool
			s, ok = setAdd(s, m)
			if ok {
				added++
			}
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return wire.Integer(added), nil
}

type sremCmd struct {
	key     string
	members []string
}

func parseSRem(args []string) (Command, error) { return sremCmd{key: args[1], members: args[2:]}, nil }

func (c sremCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	if _, ok, err := eng.Get(c.key); err != nil {
		return nil, err
	} else if !ok {
		return wire.Integer(0), nil
	}
	removed := int64(0)
	err := eng.Mutate(c.key, func(cur value.Value, exists bool) (value.Value, error) {
		s, err := asSet(cur, exists)
		if err != nil {
			return nil, err
		}
		for _, m := range c.members {
			if setRemove(s, m) {
				removed++
			}
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return wire.Integer(removed), nil
}

type sismemberCmd struct {
	key    string
	member string
}

func parseSIsMember(args []string) (Command, error) {
	return sismemberCmd{key: args[1], member: args[2]}, nil
}

func (c sismemberCmd) Execute(eng storage.Engine) (wire.Frame, error) {
	v, ok, err := eng.Get(c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return wire.Integer(0), nil
	}
	s, ok := v.(value.Set)
	if !ok {
		return nil, zerr.WrongType(v.TypeName(), "set")
	}
	if setContains(s, c.member) {
		return wire.Integer(1), nil
	}
	return wire.Integer(0), nil
}

// parseInt64 parses a base-10 signed integer without importing strconv,
// mirroring itoa's hand-rolled counterpart used for command error text.
func parseInt64(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	neg := false
	i := 0
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		i = 1
	}
	if i == len(s) {
		return 0, false
	}
	var n int64
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}

func itoa64(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
