package main

import "github.com/aalvaropc/tether/internal/cli"

func main() {
	cli.Execute()
}
