package recordprovider

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	reflectpb "google.golang.org/grpc/reflection/grpc_reflection_v1alpha"
)

// DialAndReflect connects to target and populates pool with every message
// type the server's reflection service advertises for serviceNames,
// grounded on Funxy's grpcConnect/grpcLoadProto pair
// (internal/evaluator/builtins_grpc.go): grpcConnect dials with insecure
// transport credentials, grpcLoadProto populates the descriptor registry —
// here from a live server's reflection endpoint instead of a local .proto
// file, so a RecordProvider can be built against a service with no schema
// distributed out of band.
func DialAndReflect(ctx context.Context, target string, serviceNames []string) (*Pool, func() error, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", target, err)
	}

	rc := reflectpb.NewServerReflectionClient(conn)
	client := grpcreflect.NewClient(ctx, rc)

	pool := NewPool()
	for _, name := range serviceNames {
		svc, err := client.ResolveService(name)
		if err != nil {
			client.Reset()
			conn.Close()
			return nil, nil, fmt.Errorf("resolve service %s: %w", name, err)
		}
		addServiceMessages(pool, svc)
	}

	closer := func() error {
		client.Reset()
		return conn.Close()
	}
	return pool, closer, nil
}

// addServiceMessages registers every request/response message type (and,
// transitively, every message type they reference) reachable from svc.
func addServiceMessages(pool *Pool, svc *desc.ServiceDescriptor) {
	seen := make(map[string]bool)
	for _, m := range svc.GetMethods() {
		addMessageTransitively(pool, m.GetInputType(), seen)
		addMessageTransitively(pool, m.GetOutputType(), seen)
	}
}

func addMessageTransitively(pool *Pool, md *desc.MessageDescriptor, seen map[string]bool) {
	if md == nil || seen[md.GetFullyQualifiedName()] {
		return
	}
	seen[md.GetFullyQualifiedName()] = true
	pool.addMessage(md)
	for _, fd := range md.GetFields() {
		if nested := fd.GetMessageType(); nested != nil {
			addMessageTransitively(pool, nested, seen)
		}
	}
}
