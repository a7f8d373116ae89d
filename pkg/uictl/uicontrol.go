// Package uictl describes read-only gauges the UI can poll while a
// recording is running, without knowing what hardware sits behind them.
package uictl

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// Dial is a control that can read some value.
type Dial[N Number] interface {
	Read() N
}

// CappedDial is a Dial with a maximum cap value. A max of zero means unlimited.
type CappedDial[N Number] interface {
	Dial[N]
	Cap() (num, max N)
}

// Levels is a control that returns the most recent sample levels.
type Levels[N Number] interface {
	Read() []N
}
