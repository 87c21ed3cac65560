package main

import "corequeue/cmd"

func main() {
	cmd.Run()
}
