// Package main provides a small operator CLI for a running OrbitCmd server.
// It can show telemetry, schedule burns, list the command history and follow
// the live angle feed without opening the dashboard.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"orbitcmd/pkg/config"
	"orbitcmd/pkg/model"
)

// telemetryDoc matches the wire shape served by /api/telemetry.
type telemetryDoc struct {
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Radius   float64 `json:"radius"`
	Altitude float64 `json:"altitude"`
	Angle    float64 `json:"angle"`
	Status   string  `json:"status"`
}

type commandAck struct {
	Status    string       `json:"status"`
	CommandID string       `json:"command_id"`
	Telemetry telemetryDoc `json:"telemetry"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func usage() string {
	return strings.TrimSpace(`
usage: orbitctl <command> [flags]

commands:
  telemetry   show the current spacecraft state
  burn        schedule a burn (-dvx, -dvy, -duration)
  history     list recent commands (-limit)
  watch       follow the live angle feed
`)
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Println(usage())
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "telemetry":
		return cmdTelemetry(rest)
	case "burn":
		return cmdBurn(rest)
	case "history":
		return cmdHistory(rest)
	case "watch":
		return cmdWatch(rest)
	case "help", "-h", "--help":
		fmt.Println(usage())
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage())
	}
}

// serverAddr resolves the server address: explicit flag wins, then the
// config file, then the default port. The config is only consulted when it
// already exists; config.Load would otherwise create one as a side effect.
func serverAddr(flagAddr, cfgPath string) string {
	if flagAddr != "" {
		return flagAddr
	}
	if _, err := os.Stat(cfgPath); err == nil {
		if cfg, err := config.Load(cfgPath); err == nil && cfg.Server.Address != "" {
			return cfg.Server.Address
		}
	}
	return "localhost:5000"
}

func addCommonFlags(fs *flag.FlagSet) (addr, cfgPath *string) {
	addr = fs.String("server", "", "Server address (host:port), overrides config")
	cfgPath = fs.String("config", "configs/orbitcmd.yaml", "Path to config file")
	return addr, cfgPath
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

// decodeOrAPIError decodes a success payload, or surfaces the server's
// error envelope when the status is not 200.
func decodeOrAPIError(resp *http.Response, v any) error {
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server rejected request: %s (%s)", apiErr.Message, apiErr.Error)
		}
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func cmdTelemetry(args []string) error {
	fs := flag.NewFlagSet("telemetry", flag.ExitOnError)
	addr, cfgPath := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/api/telemetry", serverAddr(*addr, *cfgPath))
	resp, err := httpClient().Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch telemetry: %w\nIs OrbitCmd running?", err)
	}
	defer resp.Body.Close()

	var tel telemetryDoc
	if err := decodeOrAPIError(resp, &tel); err != nil {
		return err
	}

	printTelemetry(&tel)
	return nil
}

func printTelemetry(tel *telemetryDoc) {
	fmt.Printf("Status:   %s\n", tel.Status)
	fmt.Printf("Angle:    %.4f deg\n", tel.Angle)
	fmt.Printf("Altitude: %.2f km\n", tel.Altitude)
	fmt.Printf("Radius:   %.2f km\n", tel.Radius)
	fmt.Printf("Velocity: (%.4f, %.4f) km/s\n", tel.VX, tel.VY)
}

func cmdBurn(args []string) error {
	fs := flag.NewFlagSet("burn", flag.ExitOnError)
	addr, cfgPath := addCommonFlags(fs)
	dvx := fs.Float64("dvx", 0, "Delta-v along X in km/s")
	dvy := fs.Float64("dvy", 0, "Delta-v along Y in km/s")
	duration := fs.Int("duration", 10, "Burn duration in seconds (1-60)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"dvx":      *dvx,
		"dvy":      *dvy,
		"duration": *duration,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/api/command", serverAddr(*addr, *cfgPath))
	resp, err := httpClient().Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to send command: %w\nIs OrbitCmd running?", err)
	}
	defer resp.Body.Close()

	var ack commandAck
	if err := decodeOrAPIError(resp, &ack); err != nil {
		return err
	}

	fmt.Printf("%s (id %s)\n\n", ack.Status, ack.CommandID)
	printTelemetry(&ack.Telemetry)
	return nil
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	addr, cfgPath := addCommonFlags(fs)
	limit := fs.Int("limit", 20, "Number of commands to list (1-500)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/api/commands?limit=%d", serverAddr(*addr, *cfgPath), *limit)
	resp, err := httpClient().Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w\nIs OrbitCmd running?", err)
	}
	defer resp.Body.Close()

	var cmds []model.Command
	if err := decodeOrAPIError(resp, &cmds); err != nil {
		return err
	}

	if len(cmds) == 0 {
		fmt.Println("No commands recorded yet.")
		return nil
	}

	fmt.Printf("%-25s %10s %10s %9s  %s\n", "RECEIVED", "DVX", "DVY", "DURATION", "ID")
	fmt.Println(strings.Repeat("-", 80))
	for _, c := range cmds {
		fmt.Printf("%-25s %10.4f %10.4f %8ds  %s\n",
			c.ReceivedAt.Format(time.RFC3339), c.DVX, c.DVY, c.Duration, shortID(c.ID))
	}
	return nil
}

// shortID trims a UUID to its first block for display.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	addr, cfgPath := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/api/feed/stream", serverAddr(*addr, *cfgPath))
	// No client timeout: the stream is long-lived by design.
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w\nIs OrbitCmd running?", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	fmt.Println("Watching angle feed (Ctrl-C to stop)")
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var msg struct {
			Type        string  `json:"type"`
			Capacity    int     `json:"capacity"`
			Samples     int     `json:"samples"`
			TimestampMs int64   `json:"timestamp_ms"`
			Angle       float64 `json:"angle"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "meta":
			fmt.Printf("connected: %d samples buffered (capacity %d)\n", msg.Samples, msg.Capacity)
		case "sample":
			ts := time.UnixMilli(msg.TimestampMs).UTC()
			fmt.Printf("%s  angle=%.4f\n", ts.Format("15:04:05"), msg.Angle)
		}
	}
	return scanner.Err()
}
