package chatv1

import (
	"context"
	"pair-chat/domain/event"

	"google.golang.org/grpc"
)

const ServiceName = "pairchat.v1.ChatService"

const (
	FindMethod    = "/" + ServiceName + "/Find"
	CancelMethod  = "/" + ServiceName + "/Cancel"
	SkipMethod    = "/" + ServiceName + "/Skip"
	EndMethod     = "/" + ServiceName + "/End"
	SendMethod    = "/" + ServiceName + "/Send"
	HistoryMethod = "/" + ServiceName + "/History"
	StateMethod   = "/" + ServiceName + "/State"
	ConnectMethod = "/" + ServiceName + "/Connect"
)

type ChatServiceServer interface {
	Find(context.Context, *Empty) (*Ack, error)
	Cancel(context.Context, *Empty) (*Ack, error)
	Skip(context.Context, *Empty) (*Ack, error)
	End(context.Context, *Empty) (*Ack, error)
	Send(context.Context, *SendRequest) (*SendResponse, error)
	History(context.Context, *HistoryRequest) (*HistoryResponse, error)
	State(context.Context, *Empty) (*StateResponse, error)
	Connect(*ConnectRequest, grpc.ServerStreamingServer[event.Frame]) error
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Find", Handler: unary(FindMethod, ChatServiceServer.Find)},
		{MethodName: "Cancel", Handler: unary(CancelMethod, ChatServiceServer.Cancel)},
		{MethodName: "Skip", Handler: unary(SkipMethod, ChatServiceServer.Skip)},
		{MethodName: "End", Handler: unary(EndMethod, ChatServiceServer.End)},
		{MethodName: "Send", Handler: unary(SendMethod, ChatServiceServer.Send)},
		{MethodName: "History", Handler: unary(HistoryMethod, ChatServiceServer.History)},
		{MethodName: "State", Handler: unary(StateMethod, ChatServiceServer.State)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Connect", Handler: connectHandler, ServerStreams: true},
	},
	Metadata: "pairchat/v1/chat.proto",
}

// unary adapts a typed method of ChatServiceServer into a grpc.MethodHandler.
func unary[Req, Res any](fullMethod string,
	call func(ChatServiceServer, context.Context, *Req) (*Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ChatServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ChatServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func connectHandler(srv any, stream grpc.ServerStream) error {
	in := new(ConnectRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ChatServiceServer).Connect(in, &grpc.GenericServerStream[ConnectRequest, event.Frame]{ServerStream: stream})
}

type ChatServiceClient interface {
	Find(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Ack, error)
	Cancel(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Ack, error)
	Skip(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Ack, error)
	End(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Ack, error)
	Send(ctx context.Context, in *SendRequest, opts ...grpc.CallOption) (*SendResponse, error)
	History(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error)
	State(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*StateResponse, error)
	Connect(ctx context.Context, in *ConnectRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[event.Frame], error)
}

type chatServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewChatServiceClient returns a client speaking the JSON codec.
func NewChatServiceClient(cc grpc.ClientConnInterface) ChatServiceClient {
	return &chatServiceClient{cc: cc}
}

func invoke[Res any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Res, error) {
	out := new(Res)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *chatServiceClient) Find(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c.cc, FindMethod, in, opts)
}

func (c *chatServiceClient) Cancel(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c.cc, CancelMethod, in, opts)
}

func (c *chatServiceClient) Skip(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c.cc, SkipMethod, in, opts)
}

func (c *chatServiceClient) End(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c.cc, EndMethod, in, opts)
}

func (c *chatServiceClient) Send(ctx context.Context, in *SendRequest, opts ...grpc.CallOption) (*SendResponse, error) {
	return invoke[SendResponse](ctx, c.cc, SendMethod, in, opts)
}

func (c *chatServiceClient) History(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	return invoke[HistoryResponse](ctx, c.cc, HistoryMethod, in, opts)
}

func (c *chatServiceClient) State(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*StateResponse, error) {
	return invoke[StateResponse](ctx, c.cc, StateMethod, in, opts)
}

func (c *chatServiceClient) Connect(ctx context.Context, in *ConnectRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[event.Frame], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], ConnectMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[ConnectRequest, event.Frame]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
