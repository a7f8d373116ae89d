package tui

import (
	"errors"
	"io"

	"github.com/muesli/termenv"
)

var ErrNothingToCopy = errors.New("nothing to copy")

// OSC52Clipboard copies through the terminal with an OSC 52 escape sequence,
// which also works over SSH. Write it to a stream the program is not
// rendering to, such as stderr.
type OSC52Clipboard struct {
	out *termenv.Output
}

func NewOSC52Clipboard(w io.Writer) *OSC52Clipboard {
	return &OSC52Clipboard{out: termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))}
}

func (c *OSC52Clipboard) Copy(text string) error {
	if text == "" {
		return ErrNothingToCopy
	}

	c.out.Copy(text)

	return nil
}
