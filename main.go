package main

import "github.com/naka-gawa/ghcount/cmd"

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd.Execute(version)
}
