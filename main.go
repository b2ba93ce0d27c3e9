package main

import "toonzip/cmd"

func main() {
	cmd.Execute()
}
