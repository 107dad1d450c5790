package main

import (
	"os"

	"github.com/PolarWolf314/storjcli/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
