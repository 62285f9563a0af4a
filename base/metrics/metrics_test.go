package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTag(t *testing.T) {
	req := require.New(t)
	req.Nil(parseTag(nil))
	req.Equal([]string{"name:buy", "result:ok"}, parseTag([]string{"name", "buy", "result", "ok"}))
	req.Panics(func() { parseTag([]string{"odd"}) })
}

func TestBumpWithoutAgent(t *testing.T) {
	met := New("test", WithoutPodName())
	req := require.New(t)
	req.NotPanics(func() {
		met.BumpSum("count", 1, "result", "ok")
		met.BumpAvg("avg", 2)
		met.BumpHistogram("histogram", 3)
		met.BumpTime("time").End()
	})
	_, isLog := nextClient().(logClient)
	req.True(isLog)
}
