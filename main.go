package main

import "github.com/sgabriel/rolodex/cmd"

func main() {
	cmd.Execute()
}
