package utils_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dbkchain/bridge-service/utils"
)

func TestSleep(t *testing.T) {
	dur := 50 * time.Millisecond
	start := time.Now()
	require.True(t, utils.Sleep(context.Background(), dur))
	require.GreaterOrEqual(t, time.Since(start), dur)
}

func TestSleepCanceledContext(t *testing.T) {
	dur := 50 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), dur)
	defer cancel()

	start := time.Now()
	require.False(t, utils.Sleep(ctx, dur*10))
	require.Less(t, time.Since(start), dur*5)
}
