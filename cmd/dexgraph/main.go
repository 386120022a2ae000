package main

import (
	"dexgraph/internal/cli"
)

func main() {
	cli.Execute()
}
