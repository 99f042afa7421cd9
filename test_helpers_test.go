package sdk

import (
	"errors"

	"github.com/rs/zerolog"
)

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func asTransportError(err error, target *TransportError) bool { return errors.As(err, target) }

func asChallengeError(err error, target *ChallengeError) bool { return errors.As(err, target) }
