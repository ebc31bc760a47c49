package main

import "github.com/tessro/stemdeck/internal/cli"

func main() {
	cli.Execute()
}
