package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/soltixdb/dbstats/internal/config"
	"github.com/soltixdb/dbstats/internal/logging"
	"go.etcd.io/etcd/client/pkg/v3/transport"
	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"
)

const (
	defaultPrefix = "/dbstats/datasets"
	cacheTTL      = 30 * time.Second
)

// EtcdRegistry stores one JSON document per dataset under <prefix>/<name>.
// Reads go through a TTL cache that a prefix watch keeps coherent with
// writes made by other nodes.
type EtcdRegistry struct {
	client *clientv3.Client
	prefix string
	cache  *Cache[*Dataset]
	logger *logging.Logger

	cancelWatch context.CancelFunc
	watchDone   chan struct{}
}

// NewEtcdRegistry connects to the configured endpoints
func NewEtcdRegistry(cfg config.RegistryConfig, logger *logging.Logger) (*EtcdRegistry, error) {
	if logger == nil {
		logger = logging.Global()
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	etcdCfg := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DialOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(16 << 20)),
		},
	}
	if cfg.TLSEnabled() {
		tlsInfo := transport.TLSInfo{
			CertFile:      cfg.CertFile,
			KeyFile:       cfg.KeyFile,
			TrustedCAFile: cfg.TrustedCAFile,
		}
		tlsCfg, err := tlsInfo.ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load etcd TLS files: %w", err)
		}
		etcdCfg.TLS = tlsCfg
	}

	client, err := clientv3.New(etcdCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	// clientv3.New does not wait for a connection
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if _, err := client.Status(ctx, cfg.Endpoints[0]); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach etcd at %s: %w", cfg.Endpoints[0], err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return newEtcdRegistryWithClient(client, prefix, logger), nil
}

func newEtcdRegistryWithClient(client *clientv3.Client, prefix string, logger *logging.Logger) *EtcdRegistry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &EtcdRegistry{
		client:      client,
		prefix:      strings.TrimSuffix(prefix, "/"),
		cache:       NewCache[*Dataset](cacheTTL),
		logger:      logger,
		cancelWatch: cancel,
		watchDone:   make(chan struct{}),
	}
	go r.watch(ctx)
	return r
}

func (r *EtcdRegistry) key(name string) string {
	return path.Join(r.prefix, name)
}

// watch drops cache entries changed by any writer
func (r *EtcdRegistry) watch(ctx context.Context) {
	defer close(r.watchDone)

	for resp := range r.client.Watch(ctx, r.prefix+"/", clientv3.WithPrefix()) {
		if err := resp.Err(); err != nil {
			r.logger.Warn("Registry watch error", "error", err)
			r.cache.DeletePrefix(r.prefix)
			continue
		}
		for _, ev := range resp.Events {
			r.cache.Delete(string(ev.Kv.Key))
		}
	}
}

func (r *EtcdRegistry) Register(ctx context.Context, ds *Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	ds.UpdatedAt = now

	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	key := r.key(ds.Name)
	resp, err := r.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return fmt.Errorf("failed to store dataset in etcd: %w", err)
	}
	if !resp.Succeeded {
		return fmt.Errorf("%w: %s", ErrExists, ds.Name)
	}
	return nil
}

func (r *EtcdRegistry) Get(ctx context.Context, name string) (*Dataset, error) {
	key := r.key(name)
	if cached, ok := r.cache.Get(key); ok {
		clone := *cached
		return &clone, nil
	}

	resp, err := r.client.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset from etcd: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	ds, err := decode(resp.Kvs[0].Value)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, ds)
	clone := *ds
	return &clone, nil
}

// List returns datasets ordered by name; undecodable entries are skipped
func (r *EtcdRegistry) List(ctx context.Context) ([]*Dataset, error) {
	resp, err := r.client.Get(ctx, r.prefix+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets from etcd: %w", err)
	}

	out := make([]*Dataset, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		ds, err := decode(kv.Value)
		if err != nil {
			r.logger.Warn("Skipping corrupt registry entry", "key", string(kv.Key), "error", err)
			continue
		}
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *EtcdRegistry) Update(ctx context.Context, ds *Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	ds.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	key := r.key(ds.Name)
	resp, err := r.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), ">", 0)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return fmt.Errorf("failed to update dataset in etcd: %w", err)
	}
	if !resp.Succeeded {
		return fmt.Errorf("%w: %s", ErrNotFound, ds.Name)
	}
	r.cache.Delete(key)
	return nil
}

func (r *EtcdRegistry) Delete(ctx context.Context, name string) error {
	key := r.key(name)
	resp, err := r.client.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to delete dataset from etcd: %w", err)
	}
	r.cache.Delete(key)
	if resp.Deleted == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Close stops the watch and the client
func (r *EtcdRegistry) Close() error {
	r.cancelWatch()
	<-r.watchDone
	r.cache.Stop()
	return r.client.Close()
}
