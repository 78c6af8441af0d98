// Interactive test client. Identify with a user id, then drive a game:
//
//	go run ./client -user 100
//	> create H
//	> join <room-id>
//	> move 9D
//	> finish
//	> leave
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeIdentify   = 2
	MsgTypeCreateRoom = 101
	MsgTypeJoinRoom   = 102
	MsgTypeLeaveRoom  = 103
	MsgTypeListRooms  = 104
	MsgTypeFindRoom   = 106
	MsgTypeMakeMove   = 201
	MsgTypeFinishMove = 202
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	user := flag.Int64("user", 0, "player id to identify as")
	flag.Parse()

	if *user == 0 {
		log.Fatal("-user is required")
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			log.Printf("<- RECV (ID: %d): %s", msgID, string(message[4:]))
		}
	}()

	log.Printf("Identifying as player %d...", *user)
	if err := send(c, MsgTypeIdentify, map[string]int64{"user_id": *user}); err != nil {
		log.Fatalf("Write error: %v", err)
	}

	log.Println("Commands: create [trump] | join <room> | list | find | move <card> | finish | leave | quit")

	reader := bufio.NewReader(os.Stdin)
	for {
		text, _ := reader.ReadString('\n')
		fields := strings.Fields(strings.TrimSpace(text))
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "create":
			payload := map[string]string{}
			if len(fields) > 1 {
				payload["trump"] = fields[1]
			}
			err = send(c, MsgTypeCreateRoom, payload)
		case "join":
			if len(fields) < 2 {
				log.Println("usage: join <room-id>")
				continue
			}
			err = send(c, MsgTypeJoinRoom, map[string]string{"room_id": fields[1]})
		case "list":
			err = send(c, MsgTypeListRooms, map[string]string{})
		case "find":
			err = send(c, MsgTypeFindRoom, map[string]string{})
		case "move":
			if len(fields) < 2 {
				log.Println("usage: move <card token, e.g. 9D>")
				continue
			}
			err = send(c, MsgTypeMakeMove, map[string]string{"card": strings.ToUpper(fields[1])})
		case "finish":
			err = send(c, MsgTypeFinishMove, map[string]string{})
		case "leave":
			err = send(c, MsgTypeLeaveRoom, map[string]string{})
		case "quit":
			c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			log.Printf("unknown command %q", fields[0])
			continue
		}
		if err != nil {
			log.Println("Write error:", err)
			return
		}
	}
}
