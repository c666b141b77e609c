package main

import "github.com/xtding233/dicepool-sim/internal/cli"

func main() {
	cli.Execute()
}
