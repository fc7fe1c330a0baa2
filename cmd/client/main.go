// Terminal client for the relay. Typed lines become text messages;
// everything the relay pushes is printed as it arrives. The session
// reconnects on its own when the socket drops.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bluecollar-chat/client"
	"bluecollar-chat/contract"
	"bluecollar-chat/domain"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
)

type Config struct {
	URL          string        `default:"ws://localhost:8080/ws"`
	Token        string        `required:"true"`
	Conversation string        `required:"true"`
	RetryDelay   time.Duration `default:"3s" split_words:"true"`
	LogLevel     string        `default:"warn" split_words:"true"`
}

func main() {
	var config Config
	if err := envconfig.Process("relay", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := client.NewSession(
		logs.GetLoggerFromString(config.LogLevel), client.WebsocketDialer{}, contract.NewSystemClock(),
		config.URL, config.Token, config.RetryDelay,
	)

	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	// Give the first dial a moment before subscribing.
	time.Sleep(500 * time.Millisecond)
	conversationID := domain.ConversationID(config.Conversation)
	if err := session.Join(conversationID); err != nil {
		color.Yellow.Printf("join failed, will retry on reconnect: %v\n", err)
	}

	go printFrames(session)
	go readInput(session, conversationID)

	select {
	case <-ctx.Done():
	case err := <-done:
		if err != nil {
			log.Fatalf("Session ended: %v", err)
		}
	}
	session.Close()
}

func printFrames(session *client.Session) {
	for data := range session.Frames {
		color.Cyan.Printf("<< %s\n", string(data))
	}
}

func readInput(session *client.Session, conversationID domain.ConversationID) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/idle":
			check(session.Idle())
		case line == "/active":
			check(session.Active())
		case strings.HasPrefix(line, "/typing"):
			check(session.Typing(conversationID, !strings.HasSuffix(line, "stop")))
		default:
			check(session.Send(conversationID, domain.Payload{
				Kind: domain.PayloadText,
				Text: line,
			}))
		}
	}
}

func check(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
	}
}
