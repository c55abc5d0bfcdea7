// cmd/client/main.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/opd-ai/go-tankwar/pkg/logging"
	"github.com/opd-ai/go-tankwar/pkg/network"
)

func main() {
	serverURL := flag.String("server", "ws://localhost:4242/ws", "Server websocket URL")
	playerName := flag.String("name", "Player", "Player name")
	teamID := flag.Int("team", -1, "Team ID, -1 for auto-assignment")
	logEnv := flag.String("log", "development", "Log environment")
	flag.Parse()

	log, err := logging.New(*logEnv)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	client, err := network.NewGameClient(log)
	if err != nil {
		log.Fatal("failed to build client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.Connect(ctx, *serverURL, *playerName, *teamID); err != nil {
		log.Fatal("failed to connect", zap.Error(err))
	}
	fmt.Printf("joined as player %d on team %d\n", client.PlayerID(), client.TeamID())

	go printStates(client)
	go printChat(client)
	go pingLoop(ctx, client)
	go readCommands(client)

	<-ctx.Done()
	fmt.Println("disconnecting")
	client.Close()
}

// printStates summarizes incoming snapshots, once a second so the
// terminal stays readable.
func printStates(client *network.GameClient) {
	last := time.Time{}
	for state := range client.States() {
		if time.Since(last) < time.Second {
			continue
		}
		last = time.Now()
		fmt.Printf("[tick %d] phase=%s time=%.0fs tanks=%d shells=%d",
			state.Tick, state.Phase, state.TimeRemaining, len(state.Tanks), len(state.Projectiles))
		for _, t := range state.Teams {
			fmt.Printf(" %s=%d", t.Name, t.Score)
		}
		fmt.Println()
	}
}

func printChat(client *network.GameClient) {
	for line := range client.Chat() {
		fmt.Printf("[%s] %s\n", line.SenderName, line.Text)
	}
}

func pingLoop(ctx context.Context, client *network.GameClient) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			client.Ping()
		}
	}
}

// readCommands turns stdin lines into chat, with /vote N casting a
// map vote.
func readCommands(client *network.GameClient) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "/vote "); ok {
			option, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				fmt.Println("usage: /vote <option index>")
				continue
			}
			client.CastVote(option)
			continue
		}
		client.SendChat(line)
	}
}
