// trinity-go repeatedly invokes kernel syscalls with randomly generated
// arguments from a pool of worker processes coordinated through shared
// memory, watched over by a supervisor that respawns hung workers.
//
// Commands:
//
//	run     - start the fuzzer: allocate shared memory, spawn workers
//	list    - list the registered syscall table entries
//	version - print version information
package main

import (
	"fmt"
	"os"

	"trinity-go/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
