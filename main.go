package main

import "github.com/fakeyudi/careerchat/cmd"

func main() {
	cmd.Execute()
}
