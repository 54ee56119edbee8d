package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/koupai/koupai/internal/client"
	"github.com/koupai/koupai/internal/server"
	"github.com/koupai/koupai/internal/store"
)

// ClientCmd connects an interactive terminal player to a server.
type ClientCmd struct {
	URL      string `kong:"default='ws://localhost:8080',help='Server URL'"`
	Nickname string `kong:"help='Display name at the table'"`
	Room     string `kong:"help='Room code to join; omit to create a new room'"`
	Player   string `kong:"help='Player ID to reattach to an existing seat'"`
	Target   int    `kong:"default='40',help='Target score for a new room (40 or 45)'"`
	Rounds   int    `kong:"default='4',help='Rounds for a new room (1, 4 or 8)'"`
	Debug    bool   `kong:"help='Enable debug logging'"`
}

func (c *ClientCmd) Run() error {
	if c.Nickname == "" && c.Player == "" {
		return fmt.Errorf("--nickname is required unless reattaching with --player")
	}
	logger := setupLogger(c.Debug)

	var cl *client.Client
	cl = client.New(c.URL, logger, func(data server.RoomStateData) {
		fmt.Println()
		fmt.Println(client.RenderView(data, cl.PlayerID()))
		fmt.Print("> ")
	}, store.WithRecognitionDelay(800*time.Millisecond))

	cl.AddEventHandler(server.MessageTypeError, func(msg *server.Message) {
		fmt.Printf("\nserver error: %s\n> ", string(msg.Data))
	})
	cl.AddEventHandler(server.MessageTypeRoundResult, func(msg *server.Message) {
		fmt.Printf("\nround settled: %s\n> ", string(msg.Data))
	})
	cl.AddEventHandler(server.MessageTypeMatchResult, func(msg *server.Message) {
		fmt.Printf("\nmatch finished: %s\n> ", string(msg.Data))
	})

	if err := cl.Connect(); err != nil {
		return err
	}
	defer func() { _ = cl.Disconnect() }()

	switch {
	case c.Room != "" && c.Player != "":
		if err := cl.Reattach(c.Room, c.Player); err != nil {
			return err
		}
	case c.Room != "":
		if err := cl.JoinRoom(c.Room, c.Nickname); err != nil {
			return err
		}
	default:
		if err := cl.CreateRoom(c.Nickname, c.Target, c.Rounds); err != nil {
			return err
		}
	}

	fmt.Println("commands: ready | start | play <card> | draw | swap <cards...> | take <hand cards>/<public cards> | clear | knock | fold | call | next | quit")
	fmt.Print("> ")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		fields := strings.Fields(line)
		var err error
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "ready":
			err = cl.Ready(true)
		case "unready":
			err = cl.Ready(false)
		case "start":
			err = cl.StartGame()
		case "play":
			if len(fields) != 2 {
				err = fmt.Errorf("usage: play <card-id>")
			} else {
				err = cl.Play(fields[1])
			}
		case "draw":
			err = cl.Draw()
		case "swap":
			if len(fields) < 2 {
				err = fmt.Errorf("usage: swap <card-id>...")
			} else {
				err = cl.ForceSwap(fields[1:])
			}
		case "take":
			err = runTake(cl, strings.TrimPrefix(line, "take "))
		case "clear":
			err = cl.Clear()
		case "knock":
			err = cl.Knock()
		case "fold", "call":
			err = cl.Respond(fields[0])
		case "next":
			err = cl.NextRound()
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}
		if err != nil {
			fmt.Println("error:", err)
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}

// runTake parses "take hand1 hand2 / pub1 pub2" into a selective swap.
func runTake(cl *client.Client, args string) error {
	parts := strings.SplitN(args, "/", 2)
	if len(parts) != 2 {
		return fmt.Errorf("usage: take <hand cards> / <public cards>")
	}
	handIDs := strings.Fields(parts[0])
	publicIDs := strings.Fields(parts[1])
	if len(handIDs) == 0 || len(handIDs) != len(publicIDs) {
		return fmt.Errorf("need the same number of hand and public cards")
	}
	return cl.SelectiveSwap(handIDs, publicIDs)
}

func setupLogger(debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// splitAddr parses "host:port" into its parts.
func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if host == "" {
		host = "0.0.0.0"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, port, nil
}
