package middleware

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func ctxIP(ip string) context.Context {
	return peer.NewContext(context.Background(), &peer.Peer{
		Addr: &net.TCPAddr{IP: net.ParseIP(ip), Port: 80},
	})
}

func TestChainUnaryServer_PanicRecovered(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	chain := ChainUnaryServer(zap.New(core))

	_, err := chain(ctxIP("8.8.8.8"), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, req any) (any, error) {
			panic("boom")
		})
	require.Error(t, err)
	require.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, 1, logs.FilterMessage("grpc handler panic").Len())
}

func TestChainUnaryServer_PassesThrough(t *testing.T) {
	chain := ChainUnaryServer(zap.NewNop())

	resp, err := chain(ctxIP("9.9.9.9"), "req", &grpc.UnaryServerInfo{FullMethod: "/svc/Ok"},
		func(ctx context.Context, req any) (any, error) { return req, nil })
	require.NoError(t, err)
	require.Equal(t, "req", resp)

	want := status.Error(codes.Unavailable, "down")
	_, err = chain(ctxIP("9.9.9.9"), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Fail"},
		func(ctx context.Context, req any) (any, error) { return nil, want })
	require.Equal(t, codes.Unavailable, status.Code(err))
}
