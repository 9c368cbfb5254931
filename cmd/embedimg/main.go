// Command embedimg converts an image into a size-bounded data URL that can be
// stored verbatim in a record field.
//
// Usage:
//
//	embedimg encode [flags] <input>
//	embedimg inspect [flags] <input>
//	embedimg config show|init
//
// Examples:
//
//	embedimg encode photo.jpg > photo.txt
//	embedimg encode --preset icon logo.png -o logo.txt
//	embedimg encode --max-width 200 --quality 0.8 scan.webp
//	embedimg inspect --preset avatar selfie.jpg
package main

import (
	"fmt"
	"os"

	"github.com/shamspias/embedimg/cmd/embedimg/commands"
)

func main() {
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
