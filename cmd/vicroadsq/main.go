package main

import "github.com/example/vicroadsq/cmd"

func main() {
	cmd.Execute()
}
