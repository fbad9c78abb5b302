// FilePath: server/monitor/cmd/main.go
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	"github.com/itsatony/curecraft/server/monitor/internal/config"
	"github.com/itsatony/curecraft/server/monitor/internal/monitoring"
	"github.com/itsatony/curecraft/server/monitor/internal/server"
	"github.com/spf13/pflag"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	// Initialize version info
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting CureCraft Monitor v%s", nuts.GetVersion())

	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid arguments: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := monitoring.ConfigureLogging(cfg.Monitoring.LogLevel); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Create and start server
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"   ______                ______            ______ ",
		"  / ____/_  __________  / ____/________ _/ __/ /_",
		" / /   / / / / ___/ _ \\/ /   / ___/ __ `/ /_/ __/",
		"/ /___/ /_/ / /  /  __/ /___/ /  / /_/ / __/ /_  ",
		"\\____/\\__,_/_/   \\___/\\____/_/   \\__,_/_/  \\__/  ",
		"............................................ monitor " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
