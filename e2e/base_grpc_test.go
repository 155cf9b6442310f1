package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"pair-chat/auth"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"pair-chat/infrastructure/grpc/chatv1"
	"pair-chat/infrastructure/grpc/client"
	"pair-chat/infrastructure/grpc/server"
	"pair-chat/repositories"
	"pair-chat/runtime"
	"pair-chat/runtime/workers"
	"pair-chat/services"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
)

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
	addr   string
	stop   func()
}

// SetupSuite loads the environment configuration and starts a server when none is given.
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.addr = s.Config.ServerAddr
	if s.addr == "" {
		s.addr, s.stop = s.startServer()
	}
}

func (s *BaseGrpcSuite) TearDownSuite() {
	if s.stop != nil {
		s.stop()
	}
}

func (s *BaseGrpcSuite) startServer() (string, func()) {
	log := slog.New(slog.DiscardHandler)
	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)

	orchestrator, err := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 0),
		repositories.NewHistoryRepository(db, log, 50),
		repositories.NewProfileRepository(db),
		repositories.NewPairingRepository(db, log),
		runtime.Options{TelemetryBufferSize: 256, SinkTimeout: time.Second, MaxContentLength: 2000})
	s.Require().NoError(err)
	ctx, cancel := context.WithCancel(context.Background())
	s.Require().NoError(orchestrator.Start(ctx))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(auth.IdentityInterceptor),
		grpc.ChainStreamInterceptor(auth.IdentityStreamInterceptor),
	)
	chatv1.RegisterChatServiceServer(srv, server.NewChatServer(log, services.NewChatService(orchestrator), 64))
	go func() { _ = srv.Serve(listener) }()

	return listener.Addr().String(), func() {
		orchestrator.Stop()
		srv.GracefulStop()
		cancel()
		_ = db.Close()
	}
}

// Participant is one connected identity and its event stream.
type Participant struct {
	*client.ChatClient
	frames chan *event.Frame
}

// Step prints a colorized header for a scenario step.
func (s *BaseGrpcSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Join connects userID and starts collecting its events.
func (s *BaseGrpcSuite) Join(ctx context.Context, userID domain.UserID) *Participant {
	c, err := client.NewChatClient(s.addr, userID)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = c.Close() })

	stream, err := c.Connect(ctx)
	s.Require().NoError(err)
	p := &Participant{ChatClient: c, frames: make(chan *event.Frame, 64)}
	go func() {
		defer close(p.frames)
		for {
			frame, err := stream.Recv()
			if err != nil {
				return
			}
			p.frames <- frame
		}
	}()
	return p
}

// Expect waits for the next event of the given kind, skipping the others.
func (s *BaseGrpcSuite) Expect(p *Participant, kind event.Kind) *event.Frame {
	timeout := time.After(3 * time.Second)
	for {
		select {
		case frame, ok := <-p.frames:
			s.Require().True(ok, "stream of %s closed while waiting for %s", p.UserID(), kind)
			if frame.Kind == kind {
				return frame
			}
		case <-timeout:
			s.FailNow(fmt.Sprintf("%s did not receive %s", p.UserID(), kind))
			return nil
		}
	}
}
