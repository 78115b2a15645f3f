package main

import "github.com/stablemint/serpd/internal/cli"

func main() {
	cli.Execute()
}
