package main

import "github.com/adrodb/adrodb/cmd"

func main() {
	cmd.Execute()
}
