package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	logx "restreamctl/pkg/logx"
)

const promptText = "Enter 'c' to connect, 'd' to disconnect, or 'q' to quit: "

func printPrompt() {
	fmt.Fprint(os.Stdout, promptText)
}

// readConsole feeds trimmed stdin lines into out. It owns the blocking read;
// the dispatch loop only ever selects on the channel. When stdin reaches EOF
// (typical under systemd) the channel is closed and the reader exits.
func readConsole(ctx context.Context, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			printPrompt()
			continue
		}
		select {
		case <-ctx.Done():
			return
		case out <- line:
		}
	}
}

// handleCommand executes one console command. It returns true when the
// operator asked to quit.
func (a *App) handleCommand(ctx context.Context, cmd string) bool {
	switch strings.ToLower(cmd) {
	case "c":
		fmt.Println("Connecting stream...")
		if err := a.stream.Connect(ctx); err != nil {
			fmt.Println("Connect failed:", err)
		}
	case "d":
		fmt.Println("Disconnecting stream...")
		if err := a.stream.Disconnect(ctx); err != nil {
			fmt.Println("Disconnect failed:", err)
		}
	case "q":
		fmt.Println("Exiting...")
		return true
	case "r":
		fmt.Println("Refreshing access token...")
		if err := a.stream.Refresh(ctx); err != nil {
			fmt.Println("Refresh failed:", err)
		}
	case "s":
		a.printJobs()
	case "h":
		a.printHistory(ctx)
	default:
		fmt.Printf("Unknown command %q.\n", cmd)
	}
	printPrompt()
	return false
}

func (a *App) printJobs() {
	jobs := a.sched.Snapshot()
	if len(jobs) == 0 {
		fmt.Println("No jobs scheduled.")
		return
	}
	for _, j := range jobs {
		line := fmt.Sprintf("%-18s next %s", j.Name, j.Next.Format("2006-01-02 15:04:05 MST"))
		if !j.LastRun.IsZero() {
			line += ", last " + j.LastRun.Format("15:04:05")
			if j.LastErr != "" {
				line += " (error: " + j.LastErr + ")"
			}
		}
		fmt.Println(line)
	}
}

func (a *App) printHistory(ctx context.Context) {
	if a.store == nil {
		fmt.Println("Command history is not enabled (no storage configured).")
		return
	}
	rctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	entries, err := a.store.RecentCommands(rctx, 10)
	cancel()
	if err != nil {
		a.log.Warn("history read failed", logx.Err(err))
		fmt.Println("Failed to read command history:", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No commands recorded yet.")
		return
	}
	for _, e := range entries {
		status := "ok"
		if !e.OK {
			status = "FAILED: " + e.Error
		}
		fmt.Printf("%s  %-10s %-5s %s  %s\n",
			e.At.Format("2006-01-02 15:04:05"), e.Op, e.Command, e.Target, status)
	}
}
