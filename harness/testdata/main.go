package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/probe/harness"
)

// Launches three echo probes from the binary named by the first argument,
// then stays alive until killed.
func main() {
	fmt.Printf("Test program starting with PID %d, PPID %d\n", os.Getpid(), os.Getppid())

	var group harness.Group
	for i := 0; i < 3; i++ {
		p, err := group.Start(context.Background(), os.Args[1], "--", harness.NewInstanceID())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start probe %d: %v\n", i, err)
			os.Exit(1)
		}
		if _, err := p.ReadLine(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Probe %d printed nothing: %v\n", i, err)
			os.Exit(1)
		}
		fmt.Printf("Started probe %d with PID %d\n", i, p.Pid())
	}

	fmt.Printf("All probes started, waiting...\n")

	time.Sleep(60 * time.Second)
}
