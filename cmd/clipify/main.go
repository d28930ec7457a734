package main

import "github.com/mahmedraza1/Clipify/internal/cli"

func main() {
	cli.Main()
}
