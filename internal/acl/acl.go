// Package acl implements the permission subsystem: users with enabled
// state, password hashes (Argon2id), allowed command/category bitmaps,
// and key/channel glob pattern lists, plus the acl_setuser rule grammar
// that mutates a user record from a token stream.
package acl

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ryanuber/go-glob"
	"golang.org/x/crypto/argon2"

	"github.com/rpcpool/zumic/internal/zerr"
)

// Category indices, a small closed set mirroring command-family grouping.
const (
	CatRead = iota
	CatWrite
	CatAdmin
	CatKeyspace
	CatPubSub
	numCategories
)

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// User holds one ACL identity.
type User struct {
	Name            string
	Enabled         bool
	NoPass          bool
	PasswordHashes  []string // hex(salt) + ":" + hex(key)
	cmdBitmap       map[int]bool
	catBitmap       [numCategories]bool
	KeyPatterns     []string
	ChannelPatterns []string
}

// NewUser creates a disabled user with empty permission sets.
func NewUser(name string) *User {
	return &User{Name: name, cmdBitmap: make(map[int]bool)}
}

// HashPassword derives an Argon2id hash for password, formatted as
// "<hex salt>:<hex key>".
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", zerr.Wrap(zerr.KindSystemIO, "acl: generate salt", err)
	}
	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword checks password against a stored "<salt>:<key>" hash.
func VerifyPassword(password, stored string) bool {
	parts := strings.SplitN(stored, ":", 2)
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// CheckIdx reports whether the user may run a command given its category
// and command index. An explicit per-command rule (+cmd/-cmd) always
// takes precedence over the category bitmap, since cmdBitmap only holds
// an entry when a rule explicitly set one — a command with no explicit
// rule falls through to the category check rather than defaulting to
// denied, which a plain bool (unset indistinguishable from denied) could
// not express.
func (u *User) CheckIdx(catIdx, cmdIdx int) bool {
	if !u.Enabled {
		return false
	}
	if allowed, explicit := u.cmdBitmap[cmdIdx]; explicit {
		return allowed
	}
	return catIdx >= 0 && catIdx < numCategories && u.catBitmap[catIdx]
}

// CheckKey reports whether key matches an allowed key pattern.
func (u *User) CheckKey(key string) bool {
	for _, p := range u.KeyPatterns {
		if glob.Glob(p, key) {
			return true
		}
	}
	return false
}

// CheckChannel reports whether channel matches an allowed channel pattern.
func (u *User) CheckChannel(channel string) bool {
	for _, p := range u.ChannelPatterns {
		if glob.Glob(p, channel) {
			return true
		}
	}
	return false
}

// Authenticate reports whether password satisfies the user's auth
// requirement (always true if NoPass, else any stored hash matching).
func (u *User) Authenticate(password string) bool {
	if u.NoPass {
		return true
	}
	for _, h := range u.PasswordHashes {
		if VerifyPassword(password, h) {
			return true
		}
	}
	return false
}
