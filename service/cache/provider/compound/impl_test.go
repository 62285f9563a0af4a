package compound

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/service/cache/provider"
	"github.com/x-xyz/gatemarket/service/cache/provider/primitive"
)

var (
	mockCtx = ctx.Background()
)

type testsuite struct {
	suite.Suite
	lyr0 provider.Provider
	lyr1 provider.Provider
	im   provider.Provider
}

func (ts *testsuite) SetupTest() {
	ts.lyr0 = primitive.NewPrimitive("layer 0", 1)
	ts.lyr1 = primitive.NewPrimitive("layer 1", 1)
	ts.im = NewCompound(ts.lyr0, nil, ts.lyr1)
}

func TestCompoundSuite(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) TestSet() {
	ts.Require().NoError(ts.im.Set(mockCtx, "key", []byte("value"), time.Minute))
	for _, l := range []provider.Provider{ts.lyr0, ts.lyr1} {
		v, _, err := l.Get(mockCtx, "key")
		ts.NoError(err)
		ts.Equal("value", string(v))
	}
}

func (ts *testsuite) TestBackFill() {
	ts.Require().NoError(ts.lyr1.Set(mockCtx, "key", []byte("value"), time.Minute))

	v, _, err := ts.im.Get(mockCtx, "key")
	ts.NoError(err)
	ts.Equal("value", string(v))

	v, _, err = ts.lyr0.Get(mockCtx, "key")
	ts.NoError(err)
	ts.Equal("value", string(v))
}

func (ts *testsuite) TestMiss() {
	_, _, err := ts.im.Get(mockCtx, "none")
	ts.Equal(provider.ErrNotFound, err)
}

func (ts *testsuite) TestDel() {
	ts.Require().NoError(ts.im.Set(mockCtx, "key", []byte("value"), time.Minute))
	ts.NoError(ts.im.Del(mockCtx, "key"))
	_, _, err := ts.lyr1.Get(mockCtx, "key")
	ts.Equal(provider.ErrNotFound, err)
}
