// Command restart-wait prints its identifier argument and stays alive for a
// while so that a runner can wait on it or kill it.
package main

import (
	"github.com/alecthomas/probe"
	"github.com/alecthomas/probe/internal/cli"
)

func main() {
	cli.Main(cli.NewEchoCommand("restart-wait", probe.EchoHold))
}
