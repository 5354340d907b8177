package main

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-emoscan/internal/config"
	"github.com/teslashibe/go-emoscan/pkg/scanner"
)

var watchAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the results of a running display server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd, watchAddr)
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchAddr, "addr", "a", "localhost:"+config.Port(), "Display server host:port")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws/status"}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", u.String(), err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	fmt.Printf("👀 Watching %s (Ctrl+C to stop)\n", u.String())

	// The server greets with the status panel, then streams updates.
	_, data, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	var info scanner.Info
	if err := json.Unmarshal(data, &info); err == nil {
		fmt.Printf("📷 %s, camera %s, model %s\n", info.Status, info.Camera, info.Model)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var up scanner.Update
		if err := json.Unmarshal(data, &up); err != nil {
			continue
		}
		fmt.Println(formatUpdate(up))
	}
}

// formatUpdate renders one status line.
func formatUpdate(u scanner.Update) string {
	if u.Seq == 0 {
		return fmt.Sprintf("── %s ──", u.Status)
	}
	line := fmt.Sprintf("#%-5d %-24s %3d%% [%s]", u.Seq, u.Text, u.Confidence, u.State)
	if u.Box != nil {
		line += fmt.Sprintf(" face %dx%d@%d,%d", u.Box.Width, u.Box.Height, u.Box.X, u.Box.Y)
	}
	return line
}
