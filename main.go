package main

import "github.com/cclinedev/ccline/cmd"

func main() {
	cmd.Execute()
}
