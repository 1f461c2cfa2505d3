package main

import (
	"os"

	"github.com/gllvm/build-tools/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
