package main

import "github.com/operativa/gestionale/cmd"

func main() {
	cmd.Execute()
}
