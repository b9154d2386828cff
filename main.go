package main

import "streamwatch/cmd"

func main() {
	cmd.Execute()
}
