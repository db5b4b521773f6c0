package main

import "github.com/kamusis/taskcap-cli/cmd"

func main() {
	cmd.Execute()
}
