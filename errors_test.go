package mailform

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrapSendError(t *testing.T) {
	err := WrapSendError(io.ErrUnexpectedEOF, "smtp relay")

	assert.True(t, errors.Is(err, ErrMailSendFailed))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.False(t, errors.Is(err, ErrStorageIOFailure))
	assert.Equal(t, io.ErrUnexpectedEOF, errors.Cause(err))
	assert.Equal(t, "smtp relay: unexpected EOF", err.Error())
}

func TestWrapStorageError(t *testing.T) {
	assert.Nil(t, WrapStorageError(nil, "ignored"))

	err := errors.Wrap(WrapStorageError(io.EOF, "select"), "list")
	assert.True(t, errors.Is(err, ErrStorageIOFailure))
	assert.False(t, errors.Is(err, ErrMailSendFailed))
}
