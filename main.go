package main

import "github.com/nazahex/rigra/cmd"

func main() {
	cmd.Execute()
}
