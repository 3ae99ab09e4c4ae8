package main

import "github.com/martianoff/exprdual/cmd/exprdual/commands"

func main() {
	commands.Execute()
}
