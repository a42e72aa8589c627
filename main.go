package main

import "github.com/KaramelBytes/popgraph/cmd"

func main() {
	cmd.Execute()
}
