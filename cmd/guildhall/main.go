package main

import "github.com/vietddude/guildhall/internal/cli"

func main() {
	cli.Execute()
}
