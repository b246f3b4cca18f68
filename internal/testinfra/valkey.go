// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultValkeyImage is the official Valkey Docker image
	DefaultValkeyImage = "valkey/valkey:8-alpine"

	// DefaultValkeyPort is the Valkey server port
	DefaultValkeyPort = "6379"
)

// ValkeyContainer is a running Valkey server for cache store tests.
type ValkeyContainer struct {
	testcontainers.Container
	Address string
}

// ValkeyOption configures the Valkey container.
type ValkeyOption func(*valkeyConfig)

type valkeyConfig struct {
	image        string
	startTimeout time.Duration
}

// WithValkeyImage sets a custom Valkey (or Redis-compatible) image.
func WithValkeyImage(image string) ValkeyOption {
	return func(c *valkeyConfig) {
		c.image = image
	}
}

// WithStartTimeout sets how long to wait for the server to accept connections.
func WithStartTimeout(timeout time.Duration) ValkeyOption {
	return func(c *valkeyConfig) {
		c.startTimeout = timeout
	}
}

// NewValkeyContainer starts a Valkey server.
//
//	vk, err := testinfra.NewValkeyContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, vk)
//	store, err := cache.NewValkeyStore(ctx, cache.ValkeyOptions{Address: vk.Address})
func NewValkeyContainer(ctx context.Context, opts ...ValkeyOption) (*ValkeyContainer, error) {
	cfg := &valkeyConfig{
		image:        DefaultValkeyImage,
		startTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultValkeyPort + "/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultValkeyPort+"/tcp"),
			wait.ForLog("Ready to accept connections"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create valkey container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, DefaultValkeyPort+"/tcp")
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &ValkeyContainer{
		Container: container,
		Address:   fmt.Sprintf("%s:%s", host, port.Port()),
	}, nil
}

// StartValkey starts a container for t, skipping when Docker is unavailable
// and terminating the container on cleanup.
func StartValkey(t *testing.T, opts ...ValkeyOption) *ValkeyContainer {
	t.Helper()
	SkipIfNoDocker(t)

	ctx := context.Background()
	vk, err := NewValkeyContainer(ctx, opts...)
	if err != nil {
		t.Fatalf("start valkey: %v", err)
	}
	t.Cleanup(func() { CleanupContainer(t, ctx, vk) })
	return vk
}
