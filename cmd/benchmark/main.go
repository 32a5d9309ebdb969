package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
)

// Metrics
var (
	totalRequests uint64
	success201    uint64 // Created
	success200    uint64 // Replayed settlements
	soldOut409    uint64
	failPayment   uint64 // 402 and 504
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
}

type room struct {
	ID        string `json:"id"`
	Available int    `json:"available"`
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	rooms, err := fetchRooms()
	if err != nil {
		log.Fatalf("Unable to list rooms: %v", err)
	}
	if len(rooms) == 0 {
		log.Fatal("No rooms to rent; run the seeder first")
	}

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, renterAddress(i), rooms)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func fetchRooms() ([]room, error) {
	resp, err := http.Get(targetURL + "/api/v1/rooms")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rooms []room
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// renterAddress builds a well-formed, distinct account id per worker.
func renterAddress(i int) string {
	id := fmt.Sprintf("GBENCH%d", i)
	return id + strings.Repeat("A", 56-len(id))
}

func worker(wg *sync.WaitGroup, start time.Time, renter string, rooms []room) {
	defer wg.Done()
	client := &http.Client{Timeout: 20 * time.Second}

	for time.Since(start) < duration {
		payload := map[string]interface{}{
			"room_id": pickRoom(rooms),
			"days":    rand.Intn(7) + 1,
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest("POST", targetURL+"/api/v1/rentals", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Identity", renter)
		req.Header.Set("Idempotency-Key", fmt.Sprintf("bench-%s-%d", renter, time.Now().UnixNano()))

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case 201:
			atomic.AddUint64(&success201, 1)
		case 200:
			atomic.AddUint64(&success200, 1)
		case 409:
			atomic.AddUint64(&soldOut409, 1)
		case 402, 504:
			atomic.AddUint64(&failPayment, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func pickRoom(rooms []room) string {
	if workload == "hotspot" && rand.Float32() < 0.90 {
		// Hotspot: 90% of traffic contends for the first room
		return rooms[0].ID
	}
	return rooms[rand.Intn(len(rooms))].ID
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	s201 := atomic.LoadUint64(&success201)
	s200 := atomic.LoadUint64(&success200)
	f409 := atomic.LoadUint64(&soldOut409)
	fPay := atomic.LoadUint64(&failPayment)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()
	var soldOutRate float64
	if total > 0 {
		soldOutRate = float64(f409) / float64(total) * 100
	}

	results := map[string]interface{}{
		"workload":         workload,
		"duration_sec":     d.Seconds(),
		"total_requests":   total,
		"throughput_tps":   tps,
		"rentals_created":  s201,
		"rentals_replayed": s200,
		"sold_out":         f409,
		"sold_out_pct":     soldOutRate,
		"payment_failures": fPay,
		"errors":           fErr,
	}

	// Print JSON for the python plotter to consume
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	// Also save to file
	filename := fmt.Sprintf("results_%s.json", workload)
	file, err := os.Create(filename)
	if err != nil {
		log.Printf("Unable to write %s: %v", filename, err)
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
