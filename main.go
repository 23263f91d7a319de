package main

import "github.com/iksnae/enai/cmd"

func main() {
	cmd.Execute()
}
