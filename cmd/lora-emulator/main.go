// lora-emulator impersonates a bench full of RYLR998 LoRa modules behind
// TCP. Each TCP client acts as one module attached over UART: it speaks
// the AT command set, and AT+SEND frames from one client are delivered to
// the others as +RCV lines with synthetic RSSI/SNR. An optional synthetic
// sender injects frames from a simulated roadside node so a gateway can
// be exercised without a sensor daemon running.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/roadsense/roadsense/internal/lora"
	"github.com/roadsense/roadsense/internal/sensor/sim"
	"github.com/roadsense/roadsense/internal/spectral"
	"github.com/roadsense/roadsense/internal/types"
)

// FlakyLinkConfig holds configuration for simulating radio link issues.
type FlakyLinkConfig struct {
	Enabled        bool    // Enable flaky link simulation
	DropFrameRate  float64 // Probability of silently dropping a relayed frame (0.0-1.0)
	CorruptRate    float64 // Probability of corrupting one byte of a relayed payload (0.0-1.0)
	TruncateRate   float64 // Probability of truncating a relayed payload (0.0-1.0)
	NoResponseRate float64 // Probability of not acking an AT command (0.0-1.0)
	GarbageRate    float64 // Probability of emitting a line of chatter before a response (0.0-1.0)
}

type client struct {
	conn    net.Conn
	address int
	mu      sync.Mutex // guards writes to conn
}

func (c *client) writeLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.conn, "%s\r\n", line)
	return err
}

// LinkEmulator relays frames between connected modules.
type LinkEmulator struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	flaky   FlakyLinkConfig
	rng     *rand.Rand
}

func NewLinkEmulator(flaky FlakyLinkConfig) *LinkEmulator {
	return &LinkEmulator{
		clients: make(map[*client]struct{}),
		flaky:   flaky,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (e *LinkEmulator) add(c *client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clients[c] = struct{}{}
}

func (e *LinkEmulator) remove(c *client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.clients, c)
}

func (e *LinkEmulator) chance(p float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return p > 0 && e.rng.Float64() < p
}

func (e *LinkEmulator) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

func (e *LinkEmulator) linkQuality() (rssi, snr int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return -40 - e.rng.Intn(60), 5 + e.rng.Intn(10)
}

// deliver sends a +RCV line to every module except the sender. The
// destination address is not used for routing: like the real radios on a
// shared network id, everyone in range hears the frame.
func (e *LinkEmulator) deliver(from *client, payload string) {
	if e.flaky.Enabled && e.chance(e.flaky.DropFrameRate) {
		log.Printf("FLAKY: Dropped frame from address %d", from.address)
		return
	}
	if e.flaky.Enabled && e.chance(e.flaky.CorruptRate) && len(payload) > 0 {
		pos := e.intn(len(payload))
		payload = payload[:pos] + "#" + payload[pos+1:]
		log.Printf("FLAKY: Corrupted payload byte at position %d", pos)
	}
	if e.flaky.Enabled && e.chance(e.flaky.TruncateRate) && len(payload) > 1 {
		cut := 1 + e.intn(len(payload)-1)
		log.Printf("FLAKY: Truncated payload to %d bytes (was %d)", cut, len(payload))
		payload = payload[:cut]
	}

	rssi, snr := e.linkQuality()
	line := fmt.Sprintf("+RCV=%d,%d,%s,%d,%d", from.address, len(payload), payload, rssi, snr)

	e.mu.Lock()
	receivers := make([]*client, 0, len(e.clients))
	for c := range e.clients {
		if c != from {
			receivers = append(receivers, c)
		}
	}
	e.mu.Unlock()

	for _, c := range receivers {
		if err := c.writeLine(line); err != nil {
			log.Printf("Error delivering frame to %s: %v", c.conn.RemoteAddr(), err)
		}
	}
	log.Printf("Relayed %d-byte frame from address %d to %d module(s) (rssi=%d snr=%d)",
		len(payload), from.address, len(receivers), rssi, snr)
}

func (e *LinkEmulator) respond(c *client, line string) {
	if e.flaky.Enabled && e.chance(e.flaky.NoResponseRate) {
		log.Printf("FLAKY: Ignoring command from %s (no response)", c.conn.RemoteAddr())
		return
	}
	if e.flaky.Enabled && e.chance(e.flaky.GarbageRate) {
		_ = c.writeLine("+READY")
	}
	if err := c.writeLine(line); err != nil {
		log.Printf("Error responding to %s: %v", c.conn.RemoteAddr(), err)
	}
}

func (e *LinkEmulator) handleCommand(c *client, command string) {
	switch {
	case command == "AT":
		e.respond(c, "+OK")
	case strings.HasPrefix(command, "AT+ADDRESS="):
		addr, err := strconv.Atoi(strings.TrimPrefix(command, "AT+ADDRESS="))
		if err != nil {
			e.respond(c, "+ERR=4")
			return
		}
		c.address = addr
		log.Printf("Module %s is now address %d", c.conn.RemoteAddr(), addr)
		e.respond(c, "+OK")
	case strings.HasPrefix(command, "AT+NETWORKID="),
		strings.HasPrefix(command, "AT+BAND="),
		strings.HasPrefix(command, "AT+PARAMETER="):
		e.respond(c, "+OK")
	case strings.HasPrefix(command, "AT+SEND="):
		// AT+SEND=<dest>,<len>,<payload>; the payload itself may
		// contain commas, so only the first two fields are split off.
		parts := strings.SplitN(strings.TrimPrefix(command, "AT+SEND="), ",", 3)
		if len(parts) != 3 {
			e.respond(c, "+ERR=5")
			return
		}
		e.respond(c, "+OK")
		e.deliver(c, parts[2])
	default:
		log.Printf("Unknown command from %s: %q", c.conn.RemoteAddr(), command)
		e.respond(c, "+ERR=2")
	}
}

func (e *LinkEmulator) handleConnection(conn net.Conn) {
	c := &client{conn: conn}
	e.add(c)
	defer func() {
		e.remove(c)
		conn.Close()
		log.Printf("Module connection from %s closed", conn.RemoteAddr())
	}()

	log.Printf("New module connection from %s", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			continue
		}
		e.handleCommand(c, command)
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Connection error: %v", err)
	}
}

// syntheticSender injects frames from an imaginary roadside node so a
// gateway can be tested without a sensor daemon on the other end.
func (e *LinkEmulator) syntheticSender(address int, profile sim.Profile, interval time.Duration) {
	src := sim.New(profile, 0)
	thermal := src.Thermal()
	climate := src.Climate()
	node := &client{address: address}

	log.Printf("Synthetic node address %d sending %s-profile frames every %v", address, profile, interval)
	for range time.Tick(interval) {
		spectralSample, _ := src.Sample()
		thermalSample, _ := thermal.Sample()
		climateSample, _ := climate.Sample()

		fv := spectral.ComputeFeatures(spectralSample)
		payload := lora.EncodePayload(types.TelemetryMessage{
			AirTemp:       *climateSample.AirTemp,
			Humidity:      *climateSample.Humidity,
			SurfaceTemp:   *thermalSample.Surface,
			VISMean:       fv.VISMean,
			NIRGreenRatio: fv.NIRGreenRatio,
			Whiteness:     fv.Whiteness,
		})
		e.deliver(node, payload)
	}
}

func main() {
	port := flag.Int("port", 8023, "TCP port to listen on")
	synthetic := flag.Duration("synthetic", 0, "Emit synthetic frames at this interval (0 disables), e.g. 5s")
	syntheticAddr := flag.Int("synthetic-address", 99, "Source address for synthetic frames")
	syntheticProfile := flag.String("synthetic-profile", "dry", "Surface profile for synthetic frames: 'dry' or 'ice'")
	flaky := flag.Bool("flaky", false, "Enable flaky link simulation")
	dropFrameRate := flag.Float64("drop-frame-rate", 0.1, "Probability of dropping a relayed frame (requires -flaky)")
	corruptRate := flag.Float64("corrupt-rate", 0.05, "Probability of corrupting a relayed payload byte (requires -flaky)")
	truncateRate := flag.Float64("truncate-rate", 0.05, "Probability of truncating a relayed payload (requires -flaky)")
	noResponseRate := flag.Float64("no-response-rate", 0.05, "Probability of ignoring an AT command (requires -flaky)")
	garbageRate := flag.Float64("garbage-rate", 0.05, "Probability of emitting chatter before a response (requires -flaky)")
	flag.Parse()

	flakyConfig := FlakyLinkConfig{
		Enabled:        *flaky,
		DropFrameRate:  *dropFrameRate,
		CorruptRate:    *corruptRate,
		TruncateRate:   *truncateRate,
		NoResponseRate: *noResponseRate,
		GarbageRate:    *garbageRate,
	}

	emulator := NewLinkEmulator(flakyConfig)

	log.Printf("Starting LoRa link emulator on port %d", *port)
	if *flaky {
		log.Printf("FLAKY LINK MODE ENABLED:")
		log.Printf("  Drop frame rate: %.1f%%", *dropFrameRate*100)
		log.Printf("  Corrupt rate: %.1f%%", *corruptRate*100)
		log.Printf("  Truncate rate: %.1f%%", *truncateRate*100)
		log.Printf("  No response rate: %.1f%%", *noResponseRate*100)
		log.Printf("  Garbage rate: %.1f%%", *garbageRate*100)
	}

	if *synthetic > 0 {
		go emulator.syntheticSender(*syntheticAddr, sim.Profile(*syntheticProfile), *synthetic)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("Failed to listen on port %d: %v", *port, err)
	}
	defer listener.Close()

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("Accept error: %v", err)
			continue
		}
		go emulator.handleConnection(conn)
	}
}
