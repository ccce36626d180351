package util

import "golang.org/x/term"

// IsTty checks if the given value is backed by a terminal.
func IsTty(arg any) bool {
	fdsrc, ok := arg.(fder)
	if !ok {
		return false
	}
	return term.IsTerminal(int(fdsrc.Fd()))
}
