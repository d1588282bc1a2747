// Command restart-record prints its identifier argument and exits.
package main

import (
	"github.com/alecthomas/probe"
	"github.com/alecthomas/probe/internal/cli"
)

func main() {
	cli.Main(cli.NewEchoCommand("restart-record", probe.RecordHold))
}
