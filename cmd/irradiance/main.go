package main

import "github.com/solartrace/irradiance/cmd/irradiance/cmd"

func main() {
	cmd.Execute()
}
