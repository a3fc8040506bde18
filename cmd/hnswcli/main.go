// Command hnswcli is an HTTP client for hnswd, exercising spec.md's
// operation surface over the REST façade instead of a gRPC stub.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const version = "1.0.0"

var (
	serverAddr string
	timeout    time.Duration
)

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "hnswd server base URL")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	command := os.Args[1]
	switch command {
	case "add":
		handleAdd(os.Args[2:])
	case "remove":
		handleRemove(os.Args[2:])
	case "update":
		handleUpdate(os.Args[2:])
	case "search":
		handleSearch(os.Args[2:])
	case "build":
		handleBuild(os.Args[2:])
	case "save":
		handleSave(os.Args[2:])
	case "load":
		handleLoad(os.Args[2:])
	case "rebuild":
		handleRebuild(os.Args[2:])
	case "stats":
		handleStats(os.Args[2:])
	case "health":
		handleHealth(os.Args[2:])
	case "version":
		fmt.Printf("hnswcli version %s\n", version)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Printf("unknown command: %s\n", command)
		showUsage()
		os.Exit(1)
	}
}

func handleAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	id := fs.String("id", "", "point id (required)")
	vectorStr := fs.String("vector", "", "vector as a JSON array (required)")
	fs.StringVar(&serverAddr, "server", serverAddr, "hnswd server base URL")
	fs.Parse(args)

	if *id == "" || *vectorStr == "" {
		fmt.Println("error: -id and -vector are required")
		fs.Usage()
		os.Exit(1)
	}

	body := map[string]interface{}{"id": *id, "vector": mustParseVector(*vectorStr)}
	resp, err := doRequest(http.MethodPost, "/v1/points", body)
	exitOnHTTPError(resp, err)
	fmt.Printf("added point %q\n", *id)
}

func handleRemove(args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	id := fs.String("id", "", "point id (required)")
	fs.StringVar(&serverAddr, "server", serverAddr, "hnswd server base URL")
	fs.Parse(args)

	if *id == "" {
		fmt.Println("error: -id is required")
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest(http.MethodDelete, "/v1/points/"+*id, nil)
	exitOnHTTPError(resp, err)
	fmt.Printf("removed point %q\n", *id)
}

func handleUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.String("id", "", "point id (required)")
	vectorStr := fs.String("vector", "", "new vector as a JSON array (required)")
	fs.StringVar(&serverAddr, "server", serverAddr, "hnswd server base URL")
	fs.Parse(args)

	if *id == "" || *vectorStr == "" {
		fmt.Println("error: -id and -vector are required")
		fs.Usage()
		os.Exit(1)
	}

	body := map[string]interface{}{"vector": mustParseVector(*vectorStr)}
	resp, err := doRequest(http.MethodPut, "/v1/points/"+*id, body)
	exitOnHTTPError(resp, err)
	fmt.Printf("updated point %q\n", *id)
}

func handleSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	queryStr := fs.String("query", "", "query vector as a JSON array (required)")
	k := fs.Int("k", 10, "number of results to return")
	tau := fs.Float64("tau", 0, "similarity floor (0 uses the server default)")
	ef := fs.Int("ef", 0, "beam width for layered search (0 uses the server default)")
	beam := fs.Int("beam", 0, "candidate beam size (0 uses the server default)")
	fs.StringVar(&serverAddr, "server", serverAddr, "hnswd server base URL")
	fs.Parse(args)

	if *queryStr == "" {
		fmt.Println("error: -query is required")
		fs.Usage()
		os.Exit(1)
	}

	body := map[string]interface{}{
		"vector": mustParseVector(*queryStr),
		"k":      *k,
		"tau":    *tau,
		"ef":     *ef,
		"beam_size": *beam,
	}
	resp, err := doRequest(http.MethodPost, "/v1/search", body)
	exitOnHTTPError(resp, err)

	var parsed struct {
		Results []struct {
			ID         string  `json:"ID"`
			Similarity float32 `json:"Similarity"`
		} `json:"results"`
	}
	decodeOrExit(resp, &parsed)

	fmt.Printf("found %d result(s)\n\n", len(parsed.Results))
	for i, r := range parsed.Results {
		fmt.Printf("%d. id=%s similarity=%.6f\n", i+1, r.ID, r.Similarity)
	}
}

func handleBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	pointsFile := fs.String("file", "", `path to a JSON file: [{"id":"a","vector":[...]}, ...] (required)`)
	fs.StringVar(&serverAddr, "server", serverAddr, "hnswd server base URL")
	fs.Parse(args)

	if *pointsFile == "" {
		fmt.Println("error: -file is required")
		fs.Usage()
		os.Exit(1)
	}

	raw, err := os.ReadFile(*pointsFile)
	if err != nil {
		fmt.Printf("error reading %s: %v\n", *pointsFile, err)
		os.Exit(1)
	}
	var points []map[string]interface{}
	if err := json.Unmarshal(raw, &points); err != nil {
		fmt.Printf("error parsing %s: %v\n", *pointsFile, err)
		os.Exit(1)
	}

	body := map[string]interface{}{"points": points}
	resp, err := doRequest(http.MethodPost, "/v1/index:build", body)
	exitOnHTTPError(resp, err)

	var parsed struct {
		TotalProcessed int      `json:"total_processed"`
		SuccessCount   int      `json:"success_count"`
		FailureCount   int      `json:"failure_count"`
		Errors         []string `json:"errors"`
	}
	decodeOrExit(resp, &parsed)
	fmt.Printf("processed=%d success=%d failure=%d\n", parsed.TotalProcessed, parsed.SuccessCount, parsed.FailureCount)
	for _, e := range parsed.Errors {
		fmt.Printf("  error: %s\n", e)
	}
}

func handleSave(args []string) {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "hnswd server base URL")
	fs.Parse(args)
	resp, err := doRequest(http.MethodPost, "/v1/snapshot:save", nil)
	exitOnHTTPError(resp, err)
	fmt.Println("snapshot saved")
}

func handleLoad(args []string) {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "hnswd server base URL")
	fs.Parse(args)
	resp, err := doRequest(http.MethodPost, "/v1/snapshot:load", nil)
	exitOnHTTPError(resp, err)
	fmt.Println("snapshot loaded")
}

func handleRebuild(args []string) {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "hnswd server base URL")
	fs.Parse(args)
	resp, err := doRequest(http.MethodPost, "/v1/index:rebuild", nil)
	exitOnHTTPError(resp, err)

	var parsed struct {
		Progress int `json:"progress"`
	}
	decodeOrExit(resp, &parsed)
	fmt.Printf("rebuild complete, progress=%d%%\n", parsed.Progress)
}

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "hnswd server base URL")
	fs.Parse(args)
	resp, err := doRequest(http.MethodGet, "/v1/stats", nil)
	exitOnHTTPError(resp, err)

	var parsed map[string]interface{}
	decodeOrExit(resp, &parsed)
	fmt.Println("=== Index Statistics ===")
	for k, v := range parsed {
		fmt.Printf("%s: %v\n", k, v)
	}
}

func handleHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "hnswd server base URL")
	fs.Parse(args)
	resp, err := doRequest(http.MethodGet, "/v1/health", nil)
	exitOnHTTPError(resp, err)

	var parsed struct {
		Status        string `json:"status"`
		Version       string `json:"version"`
		UptimeSeconds int    `json:"uptime_seconds"`
	}
	decodeOrExit(resp, &parsed)
	fmt.Printf("status:  %s\n", parsed.Status)
	fmt.Printf("version: %s\n", parsed.Version)
	fmt.Printf("uptime:  %d seconds\n", parsed.UptimeSeconds)
	if parsed.Status != "healthy" {
		os.Exit(1)
	}
}

func doRequest(method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, strings.TrimRight(serverAddr, "/")+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: timeout}
	return client.Do(req)
}

func exitOnHTTPError(resp *http.Response, err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		fmt.Printf("server returned %d: %s\n", resp.StatusCode, string(raw))
		os.Exit(1)
	}
}

func decodeOrExit(resp *http.Response, target interface{}) {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		fmt.Printf("error decoding response: %v\n", err)
		os.Exit(1)
	}
}

func mustParseVector(s string) []float64 {
	var vector []float64
	if err := json.Unmarshal([]byte(s), &vector); err != nil {
		fmt.Printf("error parsing vector: %v\n", err)
		os.Exit(1)
	}
	return vector
}

func showUsage() {
	fmt.Println(`hnswcli - HTTP client for the hnswd index server

Usage:
  hnswcli <command> [options]

Commands:
  add             Add a point
  remove          Remove (tombstone) a point by id
  update          Update a point's vector, reinserting it under the same id
  search          Run a k-nearest-neighbor query
  build           Bulk-load points from a JSON file
  save            Save the live index to the persistent snapshot store
  load            Load the index from the persistent snapshot store
  rebuild         Rebuild the index, dropping tombstones
  stats           Show index statistics
  health          Check server health
  version         Show version
  help            Show this help message

Global Options:
  -server URL       hnswd server base URL (default: http://localhost:8080)
  -timeout DURATION Request timeout (default: 30s)

Examples:

  hnswcli add -id a -vector '[1,0,0]'
  hnswcli search -query '[1,0,0]' -k 5 -tau 0.5
  hnswcli update -id a -vector '[0,1,0]'
  hnswcli remove -id a
  hnswcli build -file points.json
  hnswcli save
  hnswcli load
  hnswcli rebuild
  hnswcli stats
  hnswcli health`)
}
