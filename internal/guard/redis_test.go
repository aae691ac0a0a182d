package guard_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"evoke-ticketing/internal/guard"
)

// TestRedisStoreIntegration runs the consumed-set contract against a real
// Redis, including the two-scanners-one-ticket race.
func TestRedisStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	store := guard.NewRedisStore(client)

	// Contract: first insert wins, repeat loses, probe observes.
	inserted, err := store.InsertIfAbsent(ctx, "TKT-1-ABC123")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.InsertIfAbsent(ctx, "TKT-1-ABC123")
	require.NoError(t, err)
	assert.False(t, inserted)

	consumed, err := store.Contains(ctx, "TKT-1-ABC123")
	require.NoError(t, err)
	assert.True(t, consumed)

	at, err := store.RedeemedAt(ctx, "TKT-1-ABC123")
	require.NoError(t, err)
	assert.False(t, at.IsZero())

	// Race: many gates, one physical ticket, exactly one winner.
	g := guard.New(store)
	const gates = 20
	var wg sync.WaitGroup
	results := make(chan guard.RedeemStatus, gates)
	for i := 0; i < gates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := g.Redeem(ctx, "TKT-2-RACING")
			if !assert.NoError(t, err) {
				return
			}
			results <- result.Status
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for status := range results {
		if status == guard.Accepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted, "SetNX must admit exactly one scanner")
}
