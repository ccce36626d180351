package util

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type abortErr struct{}

func (abortErr) Error() string   { return "aborted" }
func (abortErr) Aborted() bool   { return true }
func (abortErr) ExitStatus() int { return 2 }

func TestContainsUpper(t *testing.T) {
	assert.False(t, ContainsUpper("hello"))
	assert.True(t, ContainsUpper("Hello"))
	assert.False(t, ContainsUpper("123 !?"))
	assert.True(t, ContainsUpper("straße to STRASSE"))
}

func TestCaseInsensitiveIndex(t *testing.T) {
	assert.Equal(t, 0, CaseInsensitiveIndex("Hello", 'h'))
	assert.Equal(t, 4, CaseInsensitiveIndex("worlD", 'd'))
	assert.Equal(t, -1, CaseInsensitiveIndex("abc", 'z'))
}

func TestErrorProbes(t *testing.T) {
	assert.False(t, IsAbortedError(nil))
	assert.False(t, IsAbortedError(errors.New("plain")))
	assert.True(t, IsAbortedError(abortErr{}))
	assert.True(t, IsAbortedError(errors.Wrap(abortErr{}, "wrapped")), "probes walk the unwrap chain")

	st, ok := GetExitStatus(errors.Wrap(abortErr{}, "wrapped"))
	assert.True(t, ok)
	assert.Equal(t, 2, st)

	_, ok = GetExitStatus(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsTtyNonFile(t *testing.T) {
	assert.False(t, IsTty(nil))
	assert.False(t, IsTty("not a file"))
}
