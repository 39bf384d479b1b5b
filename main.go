package main

import "blindtest/cmd"

func main() {
	cmd.Execute()
}
