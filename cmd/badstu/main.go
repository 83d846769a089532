package main

import "github.com/example/badstu-booker/cmd"

func main() {
	cmd.Execute()
}
