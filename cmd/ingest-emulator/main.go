// ingest-emulator stands in for the road-condition ingestion API during
// bench testing. It accepts the gateway's telemetry POSTs, logs them, and
// can simulate backend failures.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
)

type telemetryPayload struct {
	DeviceID      int     `json:"DeviceID"`
	AirTemp       float64 `json:"AirTemp"`
	Humidity      float64 `json:"Humidity"`
	SurfaceTemp   float64 `json:"SurfaceTemp"`
	VISMean       float64 `json:"VIS_Mean"`
	NIRGreenRatio float64 `json:"NIR_Green_Ratio"`
	Whiteness     float64 `json:"WhitenessIndex"`
}

type ingestEmulator struct {
	received atomic.Int64
	failRate float64
}

func (e *ingestEmulator) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if e.failRate > 0 && rand.Float64() < e.failRate {
		log.Printf("FLAKY: Returning 500 to %s", r.RemoteAddr)
		http.Error(w, "simulated backend failure", http.StatusInternalServerError)
		return
	}

	var p telemetryPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Bad request from %s: %v", r.RemoteAddr, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n := e.received.Add(1)
	log.Printf("Record %d from device %d: air=%.1f°C humidity=%.1f%% surface=%.1f°C vis=%.1f nir_green=%.2f whiteness=%.2f",
		n, p.DeviceID, p.AirTemp, p.Humidity, p.SurfaceTemp, p.VISMean, p.NIRGreenRatio, p.Whiteness)

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"status":"ok"}`)
}

func (e *ingestEmulator) handleCount(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `{"received":%d}`+"\n", e.received.Load())
}

func main() {
	port := flag.Int("port", 8080, "TCP port to listen on")
	path := flag.String("path", "/api/telemetry", "Request path to accept telemetry on")
	failRate := flag.Float64("fail-rate", 0, "Probability of answering with HTTP 500 (0.0-1.0)")
	flag.Parse()

	emulator := &ingestEmulator{failRate: *failRate}

	router := mux.NewRouter()
	router.HandleFunc(*path, emulator.handleTelemetry).Methods(http.MethodPost)
	router.HandleFunc("/count", emulator.handleCount).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	log.Printf("Starting ingest emulator on port %d, accepting POST %s", *port, *path)
	if *failRate > 0 {
		log.Printf("FLAKY BACKEND MODE: %.1f%% of requests will fail", *failRate*100)
	}
	log.Fatal(server.ListenAndServe())
}
