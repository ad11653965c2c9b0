package main

import "github.com/einkpi/einkpi-setup/cmd/einkpi-setup/cmd"

func main() {
	cmd.Execute()
}
