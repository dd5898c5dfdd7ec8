package main

import "github.com/strrl/postwatch/internal/cmd"

func main() {
	cmd.Execute()
}
