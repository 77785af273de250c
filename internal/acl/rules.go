package acl

import (
	"strings"

	"github.com/rpcpool/zumic/internal/zerr"
)

// commandIndex maps a command name to its small integer index, populated
// by internal/command at init time via RegisterCommand (command imports
// acl, not the other way around, so the two packages don't cycle).
var commandIndex = map[string]int{}

// categoryIndex maps a category name token (lowercase, without the @) to
// its bitmap slot.
var categoryIndex = map[string]int{
	"read":     CatRead,
	"write":    CatWrite,
	"admin":    CatAdmin,
	"keyspace": CatKeyspace,
	"pubsub":   CatPubSub,
}

// RegisterCommand records name's dispatch index for later "+cmd"/"-cmd"
// ACL rule resolution.
func RegisterCommand(name string, idx int) {
	commandIndex[strings.ToUpper(name)] = idx
}

// SetUser mutates u by applying rule tokens in order, following the
// acl_setuser grammar: on/off, +cmd/-cmd, +@cat/-@cat, ~pattern,
// &pattern, >hash, <hash, nopass, resetkeys/resetchannels/reset.
func SetUser(u *User, rules []string) error {
	for _, rule := range rules {
		if err := applyRule(u, rule); err != nil {
			return err
		}
	}
	return nil
}

func applyRule(u *User, rule string) error {
	switch {
	case rule == "on":
		u.Enabled = true
	case rule == "off":
		u.Enabled = false
	case rule == "nopass":
		u.NoPass = true
		u.PasswordHashes = nil
	case rule == "resetkeys":
		u.KeyPatterns = nil
	case rule == "resetchannels":
		u.ChannelPatterns = nil
	case rule == "reset":
		*u = *NewUser(u.Name)
	case strings.HasPrefix(rule, "+@"):
		cat, ok := categoryIndex[strings.ToLower(rule[2:])]
		if !ok {
			return zerr.New(zerr.KindSyntax, "acl: unknown category "+rule[2:])
		}
		u.catBitmap[cat] = true
	case strings.HasPrefix(rule, "-@"):
		cat, ok := categoryIndex[strings.ToLower(rule[2:])]
		if !ok {
			return zerr.New(zerr.KindSyntax, "acl: unknown category "+rule[2:])
		}
		u.catBitmap[cat] = false
	case strings.HasPrefix(rule, "+"):
		idx, ok := commandIndex[strings.ToUpper(rule[1:])]
		if !ok {
			return zerr.New(zerr.KindSyntax, "acl: unknown command "+rule[1:])
		}
		u.cmdBitmap[idx] = true
	case strings.HasPrefix(rule, "-"):
		idx, ok := commandIndex[strings.ToUpper(rule[1:])]
		if !ok {
			return zerr.New(zerr.KindSyntax, "acl: unknown command "+rule[1:])
		}
		u.cmdBitmap[idx] = false
	case strings.HasPrefix(rule, "~"):
		u.KeyPatterns = append(u.KeyPatterns, rule[1:])
	case strings.HasPrefix(rule, "&"):
		u.ChannelPatterns = append(u.ChannelPatterns, rule[1:])
	case strings.HasPrefix(rule, ">"):
		hash, err := HashPassword(rule[1:])
		if err != nil {
			return err
		}
		u.PasswordHashes = append(u.PasswordHashes, hash)
		u.NoPass = false
	case strings.HasPrefix(rule, "<"):
		removed := rule[1:]
		kept := u.PasswordHashes[:0]
		for _, h := range u.PasswordHashes {
			if h != removed {
				kept = append(kept, h)
			}
		}
		u.PasswordHashes = kept
	default:
		return zerr.New(zerr.KindSyntax, "acl: unrecognized rule token "+rule)
	}
	return nil
}
