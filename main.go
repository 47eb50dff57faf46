package main

import "github.com/lanefall/mdfc/cmd"

func main() {
	cmd.Execute()
}
