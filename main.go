// Idiomatic entrypoint for the Cobra CLI; delegates to cmd.Execute.

package main

import (
	"github.com/skudlur/cxl-fabric-sim/cmd"
)

func main() {
	cmd.Execute()
}
