package main

import "github.com/dunamismax/edgeresize/cmd/edgeresize/commands"

func main() {
	commands.Execute()
}
