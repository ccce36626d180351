//go:build !windows

package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
)

// newScreenFromDev opens the named terminal device instead of the
// process's standard streams; this is how a CLI whose stdin is the item
// pipe still gets an interactive screen.
func newScreenFromDev(dev string) (tcell.Screen, error) {
	tty, err := tcell.NewDevTtyFromDev(dev)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", dev)
	}
	s, err := tcell.NewTerminfoScreenFromTty(tty)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create screen from tty")
	}
	return s, nil
}
