package main

import "github.com/iksnae/tropedeck/cmd"

func main() {
	cmd.Execute()
}
