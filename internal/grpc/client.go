package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote StatsService
type Client struct {
	conn *grpc.ClientConn
}

// NewClient creates a client for address. Extra options are appended to the
// defaults (insecure transport, 10MB messages).
func NewClient(address string, extra ...grpc.DialOption) (*Client, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMsgSize),
			grpc.MaxCallSendMsgSize(maxMsgSize),
		),
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) call(ctx context.Context, method string, fields map[string]interface{}) (map[string]interface{}, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, err
	}
	return resp.AsMap(), nil
}

// Summarize returns the summary of source as a generic map
func (c *Client) Summarize(ctx context.Context, source, sep string) (map[string]interface{}, error) {
	return c.call(ctx, SummarizeMethod, map[string]interface{}{"source": source, "sep": sep})
}

// Distribution returns the named mapping of source as a generic map
func (c *Client) Distribution(ctx context.Context, source, sep, name string) (map[string]interface{}, error) {
	return c.call(ctx, DistributionMethod, map[string]interface{}{"source": source, "sep": sep, "name": name})
}

// Healthy reports whether the server is serving the StatsService
func (c *Client) Healthy(ctx context.Context) (bool, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}
