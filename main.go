package main

import "github.com/tanq16/vkdl/cmd"

func main() {
	cmd.Execute()
}
