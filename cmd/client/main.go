package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"pair-chat/infrastructure/grpc/chatv1"
	"pair-chat/infrastructure/grpc/client"
	"pair-chat/projection"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `envconfig:"PAIRCHAT_SERVER_ADDR" default:"localhost:8080"`
	UserID        string `envconfig:"PAIRCHAT_USER_ID" required:"true"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"INFO"`
	Colours       bool   `envconfig:"PAIRCHAT_COLOURS" default:"true"`
}

const usage = "/find  /cancel  /skip  /end  /history  /state  /quit, anything else is sent to your partner"

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	color.Enable = config.Colours

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Establish connection to the server.
	c, err := client.NewChatClient(config.ServerAddress, domain.UserID(config.UserID))
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing connection...")
		_ = c.Close()
	}()

	stream, err := c.Connect(ctx)
	if err != nil {
		return exitRuntime, err
	}
	color.Info.Printf(">>> Connected to %s as %s\n", config.ServerAddress, config.UserID)
	color.Comment.Println(usage)

	// 4. Events are printed as they arrive while stdin drives the commands.
	timeline := projection.NewTimeline()
	errChan := make(chan error, 2)
	go func() {
		for {
			frame, err := stream.Recv()
			if err != nil {
				errChan <- err
				return
			}
			timeline.Consume(*frame)
			printFrame(frame)
		}
	}()
	go func() {
		errChan <- readCommands(ctx, c, timeline, os.Stdin)
	}()

	select {
	case <-ctx.Done():
		log.Info("Stopping client...")
		return exitOK, nil
	case err := <-errChan:
		if err == nil || err == io.EOF || ctx.Err() != nil {
			return exitOK, nil
		}
		return exitRuntime, fmt.Errorf("stream error: %w", err)
	}
}

// readCommands returns nil on /quit or end of input.
func readCommands(ctx context.Context, c *client.ChatClient, timeline *projection.Timeline, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var err error
		switch line {
		case "/quit":
			return nil
		case "/find":
			err = c.Find(ctx)
		case "/cancel":
			err = c.Cancel(ctx)
		case "/skip":
			err = c.Skip(ctx)
		case "/end":
			err = c.End(ctx)
		case "/state":
			var state *chatv1.StateResponse
			if state, err = c.State(ctx); err == nil {
				color.Comment.Printf("state: %s %s\n", state.Status, state.PartnerID)
			}
		case "/history":
			err = printHistory(ctx, c, timeline)
		default:
			if strings.HasPrefix(line, "/") {
				color.Warn.Println(usage)
				continue
			}
			_, err = c.Send(ctx, line)
		}
		if err != nil {
			color.Error.Printf("! %v\n", err)
		}
	}
	return scanner.Err()
}

// printHistory merges every page of the current conversation into the
// timeline, then prints it.
func printHistory(ctx context.Context, c *client.ChatClient, timeline *projection.Timeline) error {
	cursor := ""
	for {
		page, err := c.History(ctx, cursor)
		if err != nil {
			return err
		}
		timeline.Merge(page.ConversationID, lo.Map(page.Messages, func(m chatv1.Message, _ int) projection.Entry {
			return projection.Entry{ID: m.ID, SenderID: m.SenderID, Content: m.Content, CreatedAt: m.CreatedAt}
		})...)
		if len(page.Messages) == 0 || page.Cursor == cursor {
			break
		}
		cursor = page.Cursor
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Sender", "Content"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, e := range timeline.Entries() {
		table.Append([]string{e.CreatedAt.Local().Format(time.TimeOnly), string(e.SenderID), e.Content})
	}
	table.Render()
	return nil
}

func printFrame(f *event.Frame) {
	switch f.Kind {
	case event.ReceiveMessageKind:
		at := ""
		if f.Timestamp != nil {
			at = f.Timestamp.Local().Format(time.TimeOnly)
		}
		color.New(color.FgCyan).Printf("[%s] partner: %s\n", at, f.Content)
	case event.MessageSentKind:
		color.Gray.Println("  sent")
	case event.PartnerFoundKind:
		color.Success.Printf("Chatting with %s (%s)\n", f.PartnerNickname, f.ConversationID)
	case event.ChatEndedKind:
		color.Warn.Printf("%s\n", f.Message)
	case event.PartnerOnlineKind:
		color.Info.Println("Your partner is back online")
	case event.PartnerOfflineKind:
		color.Comment.Println("Your partner went offline")
	case event.ErrorKind:
		color.Error.Printf("! %s: %s\n", f.Code, f.Message)
	default:
		color.Comment.Println(f.Message)
	}
}
