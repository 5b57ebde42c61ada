package grpc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/soltixdb/dbstats/internal/config"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/metadata"
	"github.com/soltixdb/dbstats/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const sampleRecords = "1\ta\td\te\n3\tb\ta\tf\tg\th\n4\tb\ta\td\tf\n5\tb\ta\tc\n"

func startServer(t *testing.T) (*Client, string) {
	t.Helper()

	root := t.TempDir()
	source := filepath.Join(root, "sample.tsv")
	require.NoError(t, os.WriteFile(source, []byte(sampleRecords), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "epoch.tsv"), []byte("1700000000\ta\n1700000060\tb\n"), 0o644))

	logger := logging.NewNop()
	cfg := config.DefaultConfig()
	cfg.Dataset.Root = root
	svc := services.NewStatsService(logger, metadata.NewMemoryRegistry(), nil, cfg)

	lis := bufconn.Listen(1 << 20)
	server := NewStatsServer("bufnet", svc, logger)
	go func() { _ = server.Serve(lis) }()

	client, err := NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		server.Stop()
		svc.Close()
	})
	return client, source
}

func TestNewStatsServer(t *testing.T) {
	logger := logging.NewNop()
	svc := services.NewStatsService(logger, metadata.NewMemoryRegistry(), nil, config.DefaultConfig())
	defer svc.Close()

	server := NewStatsServer("localhost:5581", svc, logger)
	require.NotNil(t, server)
	assert.Equal(t, "localhost:5581", server.address)
	assert.NotNil(t, server.statsHandler)
	assert.NotNil(t, server.grpcServer)

	server.Stop()
}

func TestStatsServer_Summarize(t *testing.T) {
	client, source := startServer(t)

	sum, err := client.Summarize(context.Background(), source, "")
	require.NoError(t, err)
	assert.Equal(t, float64(4), sum["database_size"])
	assert.Equal(t, float64(8), sum["item_count"])
	assert.Equal(t, 3.75, sum["avg_transaction_length"])
}

func TestStatsServer_Distribution(t *testing.T) {
	client, source := startServer(t)

	out, err := client.Distribution(context.Background(), source, "", "lengths")
	require.NoError(t, err)
	assert.Equal(t, "lengths", out["name"])

	entries, ok := out["entries"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(len(entries)), out["count"])
	assert.NotEmpty(t, entries)
}

func TestStatsServer_Errors(t *testing.T) {
	client, source := startServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		code codes.Code
	}{
		{
			name: "missing source",
			call: func() error { _, err := client.Summarize(ctx, "", ""); return err },
			code: codes.InvalidArgument,
		},
		{
			name: "unreadable source",
			call: func() error {
				_, err := client.Summarize(ctx, filepath.Join(filepath.Dir(source), "missing.tsv"), "")
				return err
			},
			code: codes.Unavailable,
		},
		{
			name: "source outside root",
			call: func() error { _, err := client.Distribution(ctx, "/etc/passwd", ":", "frequencies"); return err },
			code: codes.InvalidArgument,
		},
		{
			name: "timestamp span too large",
			call: func() error {
				_, err := client.Distribution(ctx, filepath.Join(filepath.Dir(source), "epoch.tsv"), "", "timestamps")
				return err
			},
			code: codes.FailedPrecondition,
		},
		{
			name: "unknown distribution",
			call: func() error { _, err := client.Distribution(ctx, source, "", "nope"); return err },
			code: codes.InvalidArgument,
		},
		{
			name: "missing name",
			call: func() error { _, err := client.Distribution(ctx, source, "", ""); return err },
			code: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestStatsServer_Health(t *testing.T) {
	client, _ := startServer(t)

	ok, err := client.Healthy(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestToStatus(t *testing.T) {
	assert.Equal(t, codes.Canceled, status.Code(toStatus(context.Canceled)))
	assert.Equal(t, codes.NotFound, status.Code(toStatus(services.NewServiceError(services.CodeDatasetNotFound, "x"))))
	assert.Equal(t, codes.FailedPrecondition, status.Code(toStatus(services.NewServiceError(services.CodeEmptyDataset, "x"))))
	assert.Equal(t, codes.FailedPrecondition, status.Code(toStatus(services.NewServiceError(services.CodeSpanTooLarge, "x"))))
	assert.Equal(t, codes.Internal, status.Code(toStatus(assert.AnError)))
}
