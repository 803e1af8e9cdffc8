// Package main - spectator
// Starts an encounter over the websocket API and tails the event stream.
// With -clients > 1 it doubles as a broadcast load generator.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ghostguild/ghg-server/internal/engine"
	"github.com/ghostguild/ghg-server/internal/network"
)

// Config for the spectator run
type Config struct {
	ServerURL  string
	NumClients int
	Duration   time.Duration
	Start      engine.StartRequest
	Tail       bool
}

// Stats tracks what the clients saw
type Stats struct {
	MessagesReceived int64
	Errors           int64
	mu               sync.Mutex
	ByType           map[string]int
}

func (s *Stats) count(t string) {
	atomic.AddInt64(&s.MessagesReceived, 1)
	s.mu.Lock()
	s.ByType[t]++
	s.mu.Unlock()
}

// inbound is the subset of event and reply fields the spectator reads.
type inbound struct {
	Type    string          `json:"type"`
	Command string          `json:"command"`
	Error   string          `json:"error"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 1, "Number of concurrent spectators")
	duration := flag.Duration("duration", 60*time.Second, "How long to watch")
	hunterID := flag.String("hunter", "warrior", "Hunter profile id")
	weaponID := flag.String("weapon", "sword", "Weapon id")
	shieldID := flag.String("shield", "tower", "Shield id")
	locationID := flag.String("location", "mansion", "Location id")
	tail := flag.Bool("tail", true, "Print combat log lines from the first client")
	flag.Parse()

	config := Config{
		ServerURL:  *serverURL,
		NumClients: *numClients,
		Duration:   *duration,
		Start: engine.StartRequest{
			HunterID:   *hunterID,
			WeaponID:   *weaponID,
			ShieldID:   *shieldID,
			LocationID: *locationID,
		},
		Tail: *tail,
	}

	fmt.Println("=========================================")
	fmt.Println("👻 GUILD SPECTATOR")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Clients:  %d\n", config.NumClients)
	fmt.Printf("Loadout:  %s / %s / %s @ %s\n", config.Start.HunterID, config.Start.WeaponID, config.Start.ShieldID, config.Start.LocationID)
	fmt.Printf("Duration: %v\n", config.Duration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.Duration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	stats := &Stats{ByType: make(map[string]int)}

	var wg sync.WaitGroup
	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)
		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()

	printResults(stats)
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()

	// Only the first client drives the encounter; the rest watch.
	if clientID == 0 {
		payload, _ := json.Marshal(config.Start)
		cmd := network.ClientCommand{Type: network.CommandStart, Payload: payload}
		if err := conn.WriteJSON(cmd); err != nil {
			log.Printf("Client %d: START failed: %v", clientID, err)
			atomic.AddInt64(&stats.Errors, 1)
			return
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				atomic.AddInt64(&stats.Errors, 1)
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			continue
		}
		stats.count(msg.Type)

		if clientID != 0 || !config.Tail {
			continue
		}
		switch msg.Type {
		case network.ReplyError:
			fmt.Printf("❌ %s rejected: %s\n", msg.Command, msg.Error)
		case network.ReplyOK:
			fmt.Printf("✅ %s accepted\n", msg.Command)
		case "LOG_LINE", "EFFECT_BANNER":
			var p struct {
				Text string `json:"text"`
			}
			if json.Unmarshal(msg.Payload, &p) == nil {
				fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), p.Text)
			}
		}
	}
}

func printResults(stats *Stats) {
	fmt.Println("\n=========================================")
	fmt.Println("📊 SPECTATOR SUMMARY")
	fmt.Println("=========================================")
	fmt.Printf("Messages Received: %d\n", atomic.LoadInt64(&stats.MessagesReceived))
	fmt.Printf("Errors:            %d\n", atomic.LoadInt64(&stats.Errors))

	stats.mu.Lock()
	defer stats.mu.Unlock()
	types := make([]string, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	fmt.Println("\nBy type:")
	for _, t := range types {
		fmt.Printf("  %-20s %d\n", t, stats.ByType[t])
	}
	fmt.Println("=========================================")
}
