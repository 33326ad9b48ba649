package main

import "github.com/mesh-intelligence/strata/internal/cli"

func main() {
	cli.Execute()
}
