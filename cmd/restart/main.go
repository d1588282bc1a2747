// Command restart prints "Allocating <N>...", allocates N bytes and stays
// alive for a while so that a runner can restart it.
package main

import (
	"github.com/alecthomas/probe/internal/cli"
)

func main() {
	cli.Main(cli.NewAllocateCommand("restart"))
}
