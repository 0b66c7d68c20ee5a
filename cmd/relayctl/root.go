package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	serverFlag string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "Client for a running promptrelay server",
	Long: `Send prompts, images, documents and audio to a local promptrelay server.

Examples:
  $ relayctl generate -p "Say hello world in a creative way"
  $ relayctl vision -p "Describe this image" -i photo.png
  $ relayctl models --provider gemini`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	server := os.Getenv("RELAYCTL_SERVER")
	if server == "" {
		server = "http://127.0.0.1:8089"
	}
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", server, "promptrelay server base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print the raw JSON response")
}

func serverURL(path string) string {
	return strings.TrimRight(serverFlag, "/") + path
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Minute}
}

// doRequest runs req and returns the body, treating non-2xx as an error
// with the server's error field when present.
func doRequest(req *http.Request) ([]byte, error) {
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		msg := strings.TrimSpace(gjson.GetBytes(body, "error").String())
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}
	return body, nil
}

// printResult prints the text field, or the raw body with --json.
func printResult(body []byte) {
	if jsonOutput {
		fmt.Println(string(body))
		return
	}
	fmt.Println(gjson.GetBytes(body, "text").String())
}

func postJSON(path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, serverURL(path), strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return doRequest(req)
}
