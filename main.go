package main

import "github.com/mittwald/authprobe/cmd"

func main() {
	cmd.Execute()
}
