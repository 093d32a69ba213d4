package alert

import (
	"context"
	"io"
)

// Bell rings the terminal bell by writing the BEL character.
type Bell struct {
	w io.Writer
}

// NewBell returns a Bell that writes to w, normally os.Stdout.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

// Name implements Alerter.
func (b *Bell) Name() string { return "bell" }

// Alert implements Alerter.
func (b *Bell) Alert(_ context.Context, _ Event) error {
	_, err := b.w.Write([]byte("\a"))
	return err
}
