package main

import "github.com/sw33tLie/biodex/cmd"

func main() {
	cmd.Execute()
}
