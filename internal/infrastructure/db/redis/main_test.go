package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/sweetshop/inventory-system/internal/infrastructure/db/dbtest"
)

var (
	testClient *redis.Client
	skipReason string
)

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	var client *redis.Client
	c, err := dbtest.Start(dbtest.Redis, func(addr string) error {
		cl, err := Connect(context.Background(), Config{Addr: addr})
		if err != nil {
			return err
		}
		client = cl
		return nil
	})
	switch {
	case errors.Is(err, dbtest.ErrNoDocker):
		skipReason = err.Error()
		return m.Run()
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer c.Close()
	defer client.Close()

	testClient = client
	return m.Run()
}

// newTestClient returns the shared client on an empty database.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	if testClient == nil {
		t.Skipf("redis integration test: %s", skipReason)
	}
	if err := testClient.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return testClient
}
