// Package command implements command dispatch: parsing a ZSP array frame
// into a typed Command, arity validation, and the command-name table
// built once at init() whose indices back the ACL permission bitmaps.
package command

import (
	"strings"

	"github.com/rpcpool/zumic/internal/acl"
	"github.com/rpcpool/zumic/internal/storage"
	"github.com/rpcpool/zumic/internal/wire"
	"github.com/rpcpool/zumic/internal/zerr"
)

// Command is implemented by every parsed command; Execute runs it against
// the storage engine and produces the reply frame.
type Command interface {
	Execute(eng storage.Engine) (wire.Frame, error)
}

// Spec describes one command's dispatch metadata.
type Spec struct {
	Name string
	// Arity follows the Redis convention: a positive N requires exactly N
	// arguments (including the command name); a negative N requires at
	// least -N.
	Arity    int
	Category int
	Parse    func(args []string) (Command, error)
}

type registration struct {
	spec *Spec
	idx  int
}

var (
	registry = map[string]registration{}
	nextIdx  = 0
)

func register(spec *Spec) {
	name := strings.ToUpper(spec.Name)
	idx := nextIdx
	nextIdx++
	registry[name] = registration{spec: spec, idx: idx}
	acl.RegisterCommand(name, idx)
}

// Lookup returns the Spec and ACL index for name (case-insensitive), or
// false if unknown.
func Lookup(name string) (*Spec, int, bool) {
	r, ok := registry[strings.ToUpper(name)]
	if !ok {
		return nil, 0, false
	}
	return r.spec, r.idx, true
}

func checkArity(spec *Spec, args []string) error {
	n := len(args)
	if spec.Arity >= 0 {
		if n != spec.Arity {
			return zerr.WrongArgCount(spec.Name, itoa(spec.Arity))
		}
		return nil
	}
	min := -spec.Arity
	if n < min {
		return zerr.WrongArgCount(spec.Name, "at least "+itoa(min))
	}
	return nil
}

func itoa(n int) string {
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

// Parse resolves args[0] as a command name (ASCII case-folded), validates
// arity against its Spec, and parses the remaining arguments.
func Parse(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, zerr.New(zerr.KindInvalidCommand, "empty command")
	}
	spec, _, ok := Lookup(args[0])
	if !ok {
		return nil, zerr.New(zerr.KindInvalidCommand, "unknown command "+args[0])
	}
	if err := checkArity(spec, args); err != nil {
		return nil, err
	}
	return spec.Parse(args)
}
