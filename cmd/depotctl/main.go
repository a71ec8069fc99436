package main

import "github.com/depotctl/depotctl/cmd/depotctl/cmd"

func main() {
	cmd.Execute()
}
