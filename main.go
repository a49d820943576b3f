package main

import "github.com/hexwave/wifidash/cmd"

func main() {
	cmd.Execute()
}
