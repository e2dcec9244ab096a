package codec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region methods

// Full method names on the Python model service. Requests and responses are
// google.protobuf.Struct messages, so no generated stubs are needed.
const (
	ServiceName           = "motionsafety.v1.ModelService"
	MethodPredictActivity = "/" + ServiceName + "/PredictActivity"
	MethodPredictFall     = "/" + ServiceName + "/PredictFall"
)

// ErrBadResponse is returned when the service reply does not match the contract.
var ErrBadResponse = errors.New("codec: malformed model response")

// #endregion methods

// #region client-struct

// Client wraps the gRPC connection to the model service hosting the activity
// classifier and the optional fall classifier.
type Client struct {
	conn    *grpc.ClientConn
	cc      grpc.ClientConnInterface
	timeout time.Duration
}

// #endregion client-struct

// #region constructor

// NewClient connects to the model service. timeout bounds each RPC; zero disables it.
func NewClient(addr string, timeout time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn, timeout: timeout}, nil
}

// NewClientWithConn creates a Client over an injected connection.
// Used for testing without a real gRPC server.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// #region close

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region predict-activity

// PredictActivity returns one activity label per input row.
func (c *Client) PredictActivity(ctx context.Context, features []string, rows [][]float64) ([]string, error) {
	resp, err := c.call(ctx, MethodPredictActivity, features, rows)
	if err != nil {
		return nil, fmt.Errorf("predict activity rpc: %w", err)
	}

	values, err := listField(resp, "labels", len(rows))
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(values))
	for i, v := range values {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: label %d is not a string", ErrBadResponse, i)
		}
		labels[i] = s.StringValue
	}
	return labels, nil
}

// #endregion predict-activity

// #region predict-fall

// PredictFall returns one fall decision per input row. Numeric replies
// (0/1 from scikit-style models) are accepted alongside booleans.
func (c *Client) PredictFall(ctx context.Context, features []string, rows [][]float64) ([]bool, error) {
	resp, err := c.call(ctx, MethodPredictFall, features, rows)
	if err != nil {
		return nil, fmt.Errorf("predict fall rpc: %w", err)
	}

	values, err := listField(resp, "falls", len(rows))
	if err != nil {
		return nil, err
	}
	falls := make([]bool, len(values))
	for i, v := range values {
		switch k := v.GetKind().(type) {
		case *structpb.Value_BoolValue:
			falls[i] = k.BoolValue
		case *structpb.Value_NumberValue:
			falls[i] = k.NumberValue != 0
		default:
			return nil, fmt.Errorf("%w: fall %d is not a bool", ErrBadResponse, i)
		}
	}
	return falls, nil
}

// #endregion predict-fall

// #region helpers

func (c *Client) call(ctx context.Context, method string, features []string, rows [][]float64) (*structpb.Struct, error) {
	req, err := EncodeMatrix(features, rows)
	if err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// EncodeMatrix builds the request message: {"features": [...], "rows": [[...], ...]}.
func EncodeMatrix(features []string, rows [][]float64) (*structpb.Struct, error) {
	names := make([]any, len(features))
	for i, f := range features {
		names[i] = f
	}
	matrix := make([]any, len(rows))
	for i, row := range rows {
		if len(row) != len(features) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(features))
		}
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		matrix[i] = vals
	}
	req, err := structpb.NewStruct(map[string]any{
		"features": names,
		"rows":     matrix,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return req, nil
}

func listField(resp *structpb.Struct, name string, want int) ([]*structpb.Value, error) {
	field, ok := resp.GetFields()[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrBadResponse, name)
	}
	list := field.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: %q is not a list", ErrBadResponse, name)
	}
	values := list.GetValues()
	if len(values) != want {
		return nil, fmt.Errorf("%w: %d %s for %d rows", ErrBadResponse, len(values), name, want)
	}
	return values, nil
}

// #endregion helpers
