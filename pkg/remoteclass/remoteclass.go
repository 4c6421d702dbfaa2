// Package remoteclass implements classmodel.ClassSource against a remote
// class server reached over gRPC, using server reflection to resolve the
// fetch method instead of a compiled .proto client. This mirrors
// pkg/codegen/codegen_grpc.go's GrpcClient: getConnection's lazy dial,
// resolveMethod's reflection-based method lookup, and grpcCall's
// JSON-in/JSON-out dynamic message construction, adapted here to a single
// fixed RPC shape (binary name in, class bytes out) instead of an
// arbitrary user-supplied method string.
package remoteclass

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jhump/protoreflect/dynamic"
	"github.com/jhump/protoreflect/dynamic/grpcdynamic"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultMethod is the "service/Method" pair Source resolves via server
// reflection when none is configured, matching the shape
// codegen_grpc.go's resolveMethod expects ("service.Name/Method").
const DefaultMethod = "jlazylink.ClassServer/FindClassBytes"

// Source fetches class bytes from a remote class server, used as a
// fallback classmodel.ClassSource behind a ClassLoader's local directory
// sources, configured via jitconfig.Classpath.RemoteURL.
type Source struct {
	address string
	method  string
	conn    *grpc.ClientConn
}

// New returns a Source dialing address lazily, on first use.
func New(address string) *Source {
	return &Source{address: address, method: DefaultMethod}
}

// WithMethod overrides the "service/Method" pair used to resolve the
// fetch RPC, for deployments whose class server doesn't use the default
// service name.
func (s *Source) WithMethod(method string) *Source {
	s.method = method
	return s
}

func (s *Source) getConnection() (*grpc.ClientConn, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := grpc.NewClient(s.address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("remoteclass: dial %s: %w", s.address, err)
	}
	s.conn = conn
	return conn, nil
}

// Close releases the pooled connection, if one was opened.
func (s *Source) Close() error {
	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil
	return conn.Close()
}

// FindClassBytes implements classmodel.ClassSource. It resolves s.method
// through server reflection, builds a request message from
// {"binary_name": binaryName}, invokes it, and decodes a base64
// "class_bytes" field out of the JSON-rendered response.
func (s *Source) FindClassBytes(binaryName string) ([]byte, error) {
	conn, err := s.getConnection()
	if err != nil {
		return nil, err
	}

	serviceName, methodName, err := splitMethod(s.method)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	refClient := grpcreflect.NewClientAuto(ctx, conn)
	defer refClient.Reset()

	svcDesc, err := refClient.ResolveService(serviceName)
	if err != nil {
		return nil, fmt.Errorf("remoteclass: resolve service %s: %w", serviceName, err)
	}
	mtdDesc := svcDesc.FindMethodByName(methodName)
	if mtdDesc == nil {
		return nil, fmt.Errorf("remoteclass: method %s not found on service %s", methodName, serviceName)
	}

	reqJSON, err := json.Marshal(map[string]string{"binary_name": binaryName})
	if err != nil {
		return nil, fmt.Errorf("remoteclass: encode request: %w", err)
	}
	reqMsg := dynamic.NewMessage(mtdDesc.GetInputType())
	if err := reqMsg.UnmarshalJSON(reqJSON); err != nil {
		return nil, fmt.Errorf("remoteclass: build request: %w", err)
	}

	stub := grpcdynamic.NewStub(conn)
	respMsg, err := stub.InvokeRpc(ctx, mtdDesc, reqMsg)
	if err != nil {
		return nil, fmt.Errorf("remoteclass: invoke %s: %w", s.method, err)
	}

	respJSON, err := respMsg.(*dynamic.Message).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("remoteclass: decode response: %w", err)
	}
	var payload struct {
		ClassBytes string `json:"class_bytes"`
	}
	if err := json.Unmarshal(respJSON, &payload); err != nil {
		return nil, fmt.Errorf("remoteclass: parse response: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(payload.ClassBytes)
	if err != nil {
		return nil, fmt.Errorf("remoteclass: decode class_bytes: %w", err)
	}
	return data, nil
}

// Describe lists the services the remote class server exposes, one per
// line, mirroring codegen_grpc.go's listServices generated method. No
// cmd/jlazyjit flag calls it.
func (s *Source) Describe() (string, error) {
	conn, err := s.getConnection()
	if err != nil {
		return "", err
	}
	ctx := context.Background()
	refClient := grpcreflect.NewClientAuto(ctx, conn)
	defer refClient.Reset()

	services, err := refClient.ListServices()
	if err != nil {
		return "", fmt.Errorf("remoteclass: list services: %w", err)
	}
	return strings.Join(services, "\n"), nil
}

func splitMethod(method string) (service, name string, err error) {
	parts := strings.SplitN(method, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("remoteclass: invalid method %q, want service/Method", method)
	}
	return parts[0], parts[1], nil
}
