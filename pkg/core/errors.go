package core

import "errors"

// FatalError aborts the current cycle: the tag could not be selected, authenticated
// or addressed, so nothing it returns can be trusted.
type FatalError string

// RecoverableError describes tag content or transient I/O the control loop absorbs.
type RecoverableError string

func (e FatalError) Error() string       { return string(e) }
func (e RecoverableError) Error() string { return string(e) }

// common errors - keep in alphabetic order within a class
var (
	ErrAuthentication = FatalError("block authentication failed")
	ErrNotSelected    = FatalError("no tag selected")
	ErrSelection      = FatalError("tag selection failed")

	ErrBankMissing      = RecoverableError("ledger has no active bank")
	ErrDocumentEmpty    = RecoverableError("document encodes to zero bytes")
	ErrDocumentTooLarge = RecoverableError("document exceeds bank capacity")
	ErrJSONIncompatible = RecoverableError("document incompatible with application")
	ErrJSONInvalid      = RecoverableError("active bank does not decode")
	ErrReadIncomplete   = RecoverableError("tag removed before read completed")
	ErrWriteIncomplete  = RecoverableError("tag removed before write committed")
)

// IsFatal reports whether err carries a FatalError anywhere in its chain.
func IsFatal(err error) bool {
	var f FatalError
	return errors.As(err, &f)
}

// IsRecoverable reports whether err carries a RecoverableError anywhere in its chain.
func IsRecoverable(err error) bool {
	var r RecoverableError
	return errors.As(err, &r)
}
