package main

import "netsync/cmd"

func main() {
	cmd.Execute()
}
