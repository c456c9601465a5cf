package errs

import "errors"

// Domain sentinel errors, mapped to HTTP codes in handlers.
var (
	ErrChannelNotFound        = errors.New("channel not found")
	ErrDestinationNotFound    = errors.New("destination not found")
	ErrDestinationExists      = errors.New("destination already exists")
	ErrConnectedChannelExists = errors.New("connected channel already exists")
	ErrAlreadyRunning         = errors.New("stream is already running")
	ErrSlotInvariant          = errors.New("slot invariant violated")
	ErrSlotNotFound           = errors.New("slot not found")
	ErrPlayoutRequest         = errors.New("playout backend request failed")
	ErrPartnerCreate          = errors.New("partner platform create failed")
)
