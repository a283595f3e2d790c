package main

import "cora/cli"

func main() {
	cli.Execute()
}
