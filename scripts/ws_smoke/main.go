package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/clubroom-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("addr", "ws://localhost:8080", "server base address")
	roomID := flag.String("room", "", "room id to join")
	kind := flag.String("as", "attendee", "connect as presenter, attendee or display")
	token := flag.String("token", os.Getenv("CLUBROOM_TOKEN"), "access token")
	hand := flag.Bool("hand", false, "raise the hand after joining (attendees only)")
	timeout := flag.Duration("timeout", 30*time.Second, "total timeout for the run")
	flag.Parse()

	if *roomID == "" || *token == "" {
		return errors.New("-room and -token are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	url := fmt.Sprintf("%s/ws/rooms/%s/%s?token=%s", strings.TrimSuffix(*base, "/"), *roomID, *kind, *token)
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if *hand {
		data, _ := json.Marshal(proto.HandData{Raised: true})
		if err := wsjson.Write(ctx, conn, proto.Inbound{Event: proto.InboundSelfHandUpdate, Data: data}); err != nil {
			return fmt.Errorf("send hand: %w", err)
		}
	}

	for {
		var in proto.Inbound
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				fmt.Printf("closed: %d\n", status)
				return nil
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("event=%s", in.Event)
		if len(in.Data) > 0 {
			var pretty any
			if json.Unmarshal(in.Data, &pretty) == nil {
				out, _ := json.Marshal(pretty)
				fmt.Printf(" data=%s", out)
			}
		}
		fmt.Println()
	}
}
