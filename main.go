package main

import "github.com/trialslog/trial-score-manager-go/cmd"

func main() {
	cmd.Execute()
}
