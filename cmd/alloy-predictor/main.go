package main

import "alloy-predictor/internal/cli"

func main() {
	cli.Execute()
}
