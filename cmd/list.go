package cmd

import (
	"fmt"

	"github.com/mitchellh/colorstring"

	"github.com/gllvm/build-tools/pkg/dist"
)

func printCatalogs() {
	colorstring.Println("[blue][bold]Supported platforms:")
	for _, platform := range dist.Platforms {
		fmt.Printf("  %s\n", platform)
	}

	colorstring.Println("[blue][bold]Supported binaries:")
	for _, binary := range dist.Binaries {
		fmt.Printf("  %s\n", binary)
	}
}
