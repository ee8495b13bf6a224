package main

import "github.com/KaramelBytes/socstudy-cli/cmd"

func main() {
	cmd.Execute()
}
