package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
)

// newScreenFromDev is a stub on Windows, where the console is not
// addressed through a device path; the default screen already reads the
// console directly.
func newScreenFromDev(dev string) (tcell.Screen, error) {
	return nil, errors.Errorf("cannot open %s: tty devices are not supported on windows", dev)
}
