package main

import "github.com/luminnexus/alchemy/cmd"

func main() {
	cmd.Execute()
}
