package main

import "github.com/maxvaer/vanityprobe/cmd"

func main() {
	cmd.Execute()
}
