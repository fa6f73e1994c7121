package main

import "mirrorplay/cmd"

func main() {
	cmd.Execute()
}
