package sds

import "github.com/rpcpool/zumic/internal/zerr"

var errInvalidUTF8 = zerr.New(zerr.KindSyntax, "sds: bytes are not valid UTF-8")
