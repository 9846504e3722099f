package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// The simulator drives a single registered device on a random walk and
// reports through the device-keyed ingestion endpoint, the same way a real
// GPS tracker would.

type report struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp string  `json:"timestamp"`
	Source    string  `json:"source"`
}

type walker struct {
	lat, lng float64
	speed    float64
	heading  float64
	rng      *rand.Rand
}

func newWalker(lat, lng float64) *walker {
	return &walker{
		lat:     lat,
		lng:     lng,
		speed:   8,
		heading: 0,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// step advances the walk: heading drifts a little each tick, speed wobbles
// around a walking-to-driving range, and the position moves accordingly.
func (w *walker) step(interval time.Duration) report {
	w.heading += (w.rng.Float64() - 0.5) * 30
	for w.heading < 0 {
		w.heading += 360
	}
	for w.heading >= 360 {
		w.heading -= 360
	}

	w.speed += (w.rng.Float64() - 0.5) * 2
	if w.speed < 0 {
		w.speed = 0
	}
	if w.speed > 30 {
		w.speed = 30
	}

	// Rough meters-to-degrees conversion; fine for a demo walk.
	distance := w.speed * interval.Seconds()
	rad := w.heading * math.Pi / 180
	w.lat += (distance * math.Cos(rad)) / 111320
	w.lng += (distance * math.Sin(rad)) / 111320
	w.lat = clamp(w.lat, -90, 90)
	w.lng = clamp(w.lng, -180, 180)

	return report{
		Lat:       w.lat,
		Lng:       w.lng,
		Speed:     w.speed,
		Heading:   w.heading,
		Accuracy:  5 + w.rng.Float64()*10,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    "simulator",
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func main() {
	server := flag.String("server", "http://localhost:5000", "GeoSentinel API base URL")
	trackingID := flag.String("tracking-id", "", "device tracking ID (GST-XXXXXXXX)")
	key := flag.String("key", "", "device ingest key")
	interval := flag.Duration("interval", 2*time.Second, "delay between reports")
	lat := flag.Float64("lat", 59.437, "starting latitude")
	lng := flag.Float64("lng", 24.7536, "starting longitude")
	flag.Parse()

	if *trackingID == "" || *key == "" {
		fmt.Fprintln(os.Stderr, "usage: geosentinel-simulator -tracking-id GST-XXXXXXXX -key <ingest key>")
		os.Exit(2)
	}

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("simulating %s against %s every %s", *trackingID, *server, *interval)

	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := fmt.Sprintf("%s/api/tracking/%s/location", *server, *trackingID)
	w := newWalker(*lat, *lng)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-sigs:
			log.Printf("simulator stopped")
			return
		case <-ticker.C:
			if err := post(client, endpoint, *key, w.step(*interval)); err != nil {
				log.Printf("report failed: %v", err)
			}
		}
	}
}

func post(client *http.Client, endpoint, key string, rep report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-Key", key)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	log.Printf("reported lat=%.5f lng=%.5f speed=%.1f", rep.Lat, rep.Lng, rep.Speed)
	return nil
}
