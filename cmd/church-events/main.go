package main

import "github.com/daz2d/coptic-service-events/internal/cli"

func main() {
	cli.Execute()
}
