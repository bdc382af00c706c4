package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPerrorAppendIgnoresNil(t *testing.T) {
	pe := NewPerror(0)
	pe.Append(nil)
	require.Equal(t, 0, pe.Len())
}

func TestPerrorAppendAllOrderPreserved(t *testing.T) {
	pe := NewPerror(0)
	e1 := errors.New("first")
	e2 := errors.New("second")
	pe.AppendAll([]error{e1, nil, e2})
	require.Equal(t, []error{e1, e2}, pe.Errors())
}

func TestPerrorFlushKeepsCapacity(t *testing.T) {
	pe := NewPerror(4)
	pe.Append(errors.New("x"))
	pe.Flush()
	require.Equal(t, 0, pe.Len())
	require.Empty(t, pe.Errors())
	require.Equal(t, 4, cap(pe.Errors()))
}
