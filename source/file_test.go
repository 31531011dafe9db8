package source

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileSetPosition(t *testing.T) {
	fs := NewFileSet()
	a := fs.AddFile("a.vx", -1, 20)
	a.AddLine(10)
	b := fs.AddFile("b.vx", -1, 5)

	require.Equal(t, "a.vx:1:3", fs.Position(a.FileSetPos(2)).String())
	require.Equal(t, "a.vx:2:2", fs.Position(a.FileSetPos(11)).String())
	require.Equal(t, "b.vx:1:1", fs.Position(b.FileSetPos(0)).String())
	require.Equal(t, "-", fs.Position(NoPos).String())
	require.False(t, fs.Position(NoPos).IsValid())

	var nilSet *FileSet
	require.Nil(t, nilSet.File(a.FileSetPos(2)))
}
