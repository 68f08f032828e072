package main

import "github.com/kozaktomas/door-dashboard/cmd"

func main() {
	cmd.Execute()
}
