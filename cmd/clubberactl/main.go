package main

import "github.com/dalemusser/clubbera/cmd/clubberactl/cmd"

func main() {
	cmd.Execute()
}
