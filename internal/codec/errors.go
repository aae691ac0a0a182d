package codec

import "errors"

// Verification and rendering failures. Callers branch on these with
// errors.Is; the codec itself never logs or retries.
var (
	// ErrMalformedPayload means the scanned text could not be parsed into
	// the expected ticket shape at all.
	ErrMalformedPayload = errors.New("malformed ticket payload")

	// ErrMissingField means the payload parsed but one of the identity
	// fields (ticketId, eventId, userId, hash) is absent or empty.
	ErrMissingField = errors.New("missing required ticket field")

	// ErrTagMismatch means the payload parsed fully but the recomputed
	// integrity tag does not match the one carried in the payload.
	ErrTagMismatch = errors.New("integrity tag mismatch")

	// ErrPayloadTooLarge means the serialized ticket does not fit the QR
	// capacity at the requested recovery level. Retry with a lower level
	// or a larger image.
	ErrPayloadTooLarge = errors.New("ticket payload exceeds QR capacity")
)
