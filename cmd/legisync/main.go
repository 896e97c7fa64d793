package main

import "github.com/vietddude/legisync/internal/cli"

func main() {
	cli.Execute()
}
