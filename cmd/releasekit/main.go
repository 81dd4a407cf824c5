package main

import (
	"os"

	"github.com/ariel-frischer/releasekit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
