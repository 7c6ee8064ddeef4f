// Package dbtest runs throwaway MongoDB and Redis containers for adapter
// tests through the local Docker daemon.
package dbtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const maxWait = 2 * time.Minute

// ErrNoDocker is returned by Start when no Docker daemon answers. Callers
// skip their integration tests on it.
var ErrNoDocker = errors.New("docker is not available")

// Image is a container image and the port the adapter connects to.
type Image struct {
	Repository string
	Tag        string
	Port       string
}

var (
	Mongo = Image{Repository: "mongo", Tag: "7", Port: "27017/tcp"}
	Redis = Image{Repository: "redis", Tag: "7-alpine", Port: "6379/tcp"}
)

// Container is a running image reachable at Addr (host:port).
type Container struct {
	Addr string

	pool     *dockertest.Pool
	resource *dockertest.Resource
}

// Start runs img and retries ready against its address until it succeeds or
// maxWait elapses.
func Start(img Image, ready func(addr string) error) (*Container, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDocker, err)
	}
	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDocker, err)
	}
	pool.MaxWait = maxWait

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: img.Repository,
		Tag:        img.Tag,
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", img.Repository, err)
	}
	// Reaped by the daemon even if the test binary is killed.
	_ = resource.Expire(uint(3 * maxWait / time.Second))

	c := &Container{Addr: resource.GetHostPort(img.Port), pool: pool, resource: resource}
	if err := pool.Retry(func() error { return ready(c.Addr) }); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("wait for %s: %w", img.Repository, err)
	}
	return c, nil
}

func (c *Container) Close() error {
	return c.pool.Purge(c.resource)
}
