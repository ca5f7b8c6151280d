package main

import "adhesion-metrics/cmd/adhesion/cmd"

func main() {
	cmd.Execute()
}
