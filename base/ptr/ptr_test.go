package ptr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointers(t *testing.T) {
	req := require.New(t)
	req.Equal("memo", *String("memo"))
	req.Equal(uint64(1<<40), *Uint64(1 << 40))
}
