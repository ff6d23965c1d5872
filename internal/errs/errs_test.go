package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvalidDataIsSentinel(t *testing.T) {
	err := InvalidData("Invalid authentication-tag")
	require.True(t, errors.Is(err, ErrInvalidData))
	require.Equal(t, "invalid data: Invalid authentication-tag", err.Error())
}

func TestIOErrKind(t *testing.T) {
	err := IO(IOUnexpectedEOF, "Failed to read from stdin", errors.New("eof"))
	require.True(t, errors.Is(err, ErrIO))

	var ioErr *IOErr
	require.True(t, errors.As(err, &ioErr))
	require.Equal(t, IOUnexpectedEOF, ioErr.Kind)
	require.Equal(t, "Failed to read from stdin", err.Error())
}

func TestUnsupportedAndInvalidParameter(t *testing.T) {
	require.True(t, errors.Is(Unsupported("unknown algorithm"), ErrUnsupported))
	require.True(t, errors.Is(InvalidParameter("buffer too small"), ErrInvalidParameter))
}

func TestResourceWrapsCause(t *testing.T) {
	cause := errors.New("oom")
	err := Resource("argon2i", cause)
	require.True(t, errors.Is(err, ErrResource))
	require.Contains(t, err.Error(), "oom")
}

func TestCLIError(t *testing.T) {
	err := CLIf("unknown flag %q", "--bogus")
	require.True(t, errors.Is(err, ErrCLI))
	require.Equal(t, `unknown flag "--bogus"`, err.Error())
}
