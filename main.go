// Package main is the entry point for the codemorph CLI.
package main

import "github.com/wibhim/codemorph/cmd"

func main() {
	cmd.Execute()
}
