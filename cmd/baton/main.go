package main

import "github.com/baton-project/baton/internal/cli"

func main() {
	cli.Execute()
}
