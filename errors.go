package mailform

// WrapSendError annotates a transport failure so that it matches
// ErrMailSendFailed while keeping the underlying cause.
func WrapSendError(err error, message string) error {
	return wrapError(err, ErrMailSendFailed, message)
}

// WrapStorageError annotates a storage failure so that it matches
// ErrStorageIOFailure while keeping the underlying cause.
func WrapStorageError(err error, message string) error {
	return wrapError(err, ErrStorageIOFailure, message)
}

func wrapError(err, kind error, message string) error {
	if err == nil {
		return nil
	}

	return &kindError{cause: err, kind: kind, message: message}
}

// kindError matches its kind sentinel with errors.Is and unwraps to the
// underlying cause.
type kindError struct {
	cause   error
	kind    error
	message string
}

func (e *kindError) Error() string {
	return e.message + ": " + e.cause.Error()
}

func (e *kindError) Cause() error {
	return e.cause
}

func (e *kindError) Unwrap() error {
	return e.cause
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}
