package metadata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/soltixdb/dbstats/internal/config"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/client/pkg/v3/types"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"
)

// startEtcd runs an embedded single-node etcd and returns its client endpoint
func startEtcd(t *testing.T) []string {
	t.Helper()

	cfg := embed.NewConfig()
	cfg.Dir = t.TempDir()

	cfg.ListenClientUrls = types.MustNewURLs([]string{"http://127.0.0.1:0"})
	cfg.ListenPeerUrls = types.MustNewURLs([]string{"http://127.0.0.1:0"})
	cfg.LogLevel = "error"
	cfg.Logger = "zap"

	e, err := embed.StartEtcd(cfg)
	require.NoError(t, err)

	select {
	case <-e.Server.ReadyNotify():
	case <-time.After(10 * time.Second):
		e.Close()
		t.Fatal("etcd took too long to start")
	}
	t.Cleanup(e.Close)

	return []string{e.Clients[0].Addr().String()}
}

func newTestEtcdRegistry(t *testing.T, endpoints []string) *EtcdRegistry {
	t.Helper()
	r, err := NewEtcdRegistry(config.RegistryConfig{
		Type:        "etcd",
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
		Prefix:      "/test/datasets",
	}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestEtcdRegistry(t *testing.T) {
	registryContract(t, newTestEtcdRegistry(t, startEtcd(t)))
}

func TestEtcdRegistry_WatchInvalidatesCache(t *testing.T) {
	endpoints := startEtcd(t)
	ctx := context.Background()

	reader := newTestEtcdRegistry(t, endpoints)
	writer := newTestEtcdRegistry(t, endpoints)

	require.NoError(t, writer.Register(ctx, &Dataset{Name: "shared", Source: "/v1"}))

	// warm the reader's cache
	got, err := reader.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "/v1", got.Source)

	got.Source = "/v2"
	require.NoError(t, writer.Update(ctx, got))

	assert.Eventually(t, func() bool {
		ds, err := reader.Get(ctx, "shared")
		return err == nil && ds.Source == "/v2"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestEtcdRegistry_SkipsCorruptEntries(t *testing.T) {
	endpoints := startEtcd(t)
	ctx := context.Background()
	r := newTestEtcdRegistry(t, endpoints)

	require.NoError(t, r.Register(ctx, &Dataset{Name: "good", Source: "/x"}))

	raw, err := clientv3.New(clientv3.Config{Endpoints: endpoints, DialTimeout: 5 * time.Second})
	require.NoError(t, err)
	defer func() { _ = raw.Close() }()
	_, err = raw.Put(ctx, "/test/datasets/bad", "{not json")
	require.NoError(t, err)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "good", list[0].Name)
}

func TestNewEtcdRegistry_Unreachable(t *testing.T) {
	_, err := NewEtcdRegistry(config.RegistryConfig{
		Endpoints:   []string{"127.0.0.1:1"},
		DialTimeout: 500 * time.Millisecond,
	}, logging.NewNop())
	assert.Error(t, err)
}

func TestNewEtcdRegistry_MissingTLSFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewEtcdRegistry(config.RegistryConfig{
		Type:        "etcd",
		Endpoints:   []string{"127.0.0.1:2379"},
		DialTimeout: time.Second,
		CertFile:    filepath.Join(dir, "client.pem"),
		KeyFile:     filepath.Join(dir, "client-key.pem"),
	}, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS")
}
