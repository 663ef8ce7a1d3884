package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStopRunsAllInOrder(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	err := Stop(time.Second,
		Func(func(context.Context) error { order = append(order, "server"); return nil }),
		nil,
		Func(func(context.Context) error { order = append(order, "service"); return boom }),
		Func(func(ctx context.Context) error {
			order = append(order, "store")
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil
		}),
	)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"server", "service", "store"}, order)
}

func TestStopWithNothing(t *testing.T) {
	assert.NoError(t, Stop(time.Second))
}
