package main

import "github.com/ammiranda/forest/cmd/forest/cmd"

func main() {
	cmd.Execute()
}
