package main

import "github.com/ragersky/pdfsigner/cli"

func main() {
	cli.Run()
}
