package ports

import "github.com/bft-labs/bifrost/pkg/log"

type (
	Logger = log.Logger
	Field  = log.Field
)

var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Uint64   = log.Uint64
	Bool     = log.Bool
	Duration = log.Duration
	Time     = log.Time
	Bytes    = log.Bytes
	Err      = log.Err
	Any      = log.Any
)
