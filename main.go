package main

import "github.com/user/clipcutter/cmd"

func main() {
	cmd.Execute()
}
