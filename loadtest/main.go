package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	WSURL     = "ws://localhost:8080/ws"
	UserCount = 200 // ⚠️ Start small. The relay buffers whole uploads in memory.
	MsgCount  = 20  // Text messages per user
	ChunkSize = 16 * 1024
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func main() {
	log.Printf("🔥 STARTING STRESS TEST: %d users, %d messages each...", UserCount, MsgCount)
	var wg sync.WaitGroup

	for i := 0; i < UserCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runUser(id)
		}(i)
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

func runUser(id int) {
	user := fmt.Sprintf("load_user_%d", id)
	chat := fmt.Sprintf("load_chat_%d", id%10)

	conn, _, err := websocket.DefaultDialer.Dial(WSURL, nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%s]: %v", user, err)
		return
	}
	defer conn.Close()

	// Drain pushed events so the read buffer never fills up.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send(conn, "login", map[string]string{"userId": user})

	for i := 0; i < MsgCount; i++ {
		send(conn, "text", map[string]string{
			"chatId": chat,
			"text":   fmt.Sprintf("LoadTest Msg %d from %s", i, user),
			"type":   "text",
		})
		// Small sleep to prevent instant localhost bottleneck
		time.Sleep(10 * time.Millisecond)
	}

	sendChunkedFile(conn, user, chat)
	log.Printf("✅ %s finished", user)
}

// sendChunkedFile streams one fake image upload the way real clients do: a
// data URI split into fixed-size chunks, delivered in order.
func sendChunkedFile(conn *websocket.Conn, user, chat string) {
	blob := make([]byte, 64*1024)
	for i := range blob {
		blob[i] = byte(i)
	}
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(blob)

	total := (len(payload) + ChunkSize - 1) / ChunkSize
	uploadID := fmt.Sprintf("%s_upload_%d", user, time.Now().UnixNano())

	for i := 0; i < total; i++ {
		end := (i + 1) * ChunkSize
		if end > len(payload) {
			end = len(payload)
		}
		send(conn, "dataFiles", map[string]any{
			"fromUser":       user,
			"chatId":         chat,
			"dataFileId":     uploadID,
			"fileName":       "stress.png",
			"chunk":          payload[i*ChunkSize : end],
			"chunkIndex":     i,
			"totalChunks":    total,
			"dataFilesCount": 1,
			"type":           "image",
		})
	}
}

func send(conn *websocket.Conn, event string, data any) {
	raw, _ := json.Marshal(data)
	frame, _ := json.Marshal(envelope{Event: event, Data: raw})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		log.Printf("❌ Send Fail [%s]: %v", event, err)
	}
}
