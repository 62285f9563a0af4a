package goroutine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecover(t *testing.T) {
	req := require.New(t)

	ran := false
	req.Nil(Recover(func() { ran = true }))
	req.True(ran)

	ev := Recover(func() { panic("payout overflow") })
	req.NotNil(ev)
	req.Equal("payout overflow", ev.Panic)
	req.NotEmpty(ev.Stack)
}
