package mongoclient

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolSize(t *testing.T) {
	req := require.New(t)
	cpu := runtime.NumCPU()

	req.Equal(uint64(cpu), poolSize(0, 1))
	req.Equal(uint64(2*cpu), poolSize(2, 0))
	req.Equal(uint64((2*cpu+2)/3), poolSize(2, 3))
	req.Equal(uint64(1), poolSize(0.0001, 5))
}
