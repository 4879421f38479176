// Command wstail connects to a board server and prints every event it
// broadcasts, one JSON document per line.
package main

import (
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "Board websocket URL")
	flag.Parse()

	u, err := url.Parse(*addr)
	if err != nil {
		log.Fatalf("Invalid address %q: %v", *addr, err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial %s failed: %v", u, err)
	}
	defer func() { _ = conn.Close() }()
	log.Printf("Connected to %s", u)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("Server closed the stream: %v", err)
				} else {
					log.Printf("Read error: %v", err)
				}
				return
			}
			if _, err := os.Stdout.Write(append(message, '\n')); err != nil {
				return
			}
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
	case <-interrupt:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
