package main

import "github.com/nsbench/nsbench/cmd"

func main() {
	cmd.Execute()
}
