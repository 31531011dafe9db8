package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gad-lang/semcore/source"
)

func TestInternalError(t *testing.T) {
	err := Internalf(ErrNotConverged, source.FilePos{}, nil, "scheduler %s", "did not converge")
	require.Equal(t, "Internal Error: scheduler did not converge", err.Error())
	require.True(t, errors.Is(err, ErrNotConverged))

	fs := source.NewFileSet()
	f := fs.AddFile("m.vx", -1, 10)
	err = Internalf(ErrMissingBinding, fs.Position(f.FileSetPos(3)), nil, "missing")
	require.Equal(t, "Internal Error: missing\n\tat m.vx:1:4", err.Error())

	var ie *InternalError
	require.True(t, errors.As(fmt.Errorf("wrap: %w", err), &ie))
}

func TestConfigError(t *testing.T) {
	err := Configf(ErrInvalidBoundary, source.FilePos{}, "f", "bad tag %q", 'X')
	require.Equal(t, "Config Error: bad tag 'X'", err.Error())
	require.True(t, errors.Is(err, ErrInvalidBoundary))
	require.Equal(t, "f", err.Symbol)
}

func TestErrorList(t *testing.T) {
	var l ErrorList
	require.NoError(t, l.Err())
	l.Add(nil)
	require.Empty(t, l)

	a, b := errors.New("a"), errors.New("b")
	l.Add(a)
	require.Equal(t, a, l.Err())
	l.Add(b)
	require.Equal(t, "a", l.Error())
	require.Equal(t, "multiple errors:\n a\n b", fmt.Sprintf("%+v", l))
	require.Equal(t, "multiple errors:\n a", fmt.Sprintf("%v", l))
	require.True(t, errors.Is(l.Err(), b))
}
