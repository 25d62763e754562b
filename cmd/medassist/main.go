package main

import "github.com/jrsteele09/medassist-client/cmd/medassist/cmd"

func main() {
	cmd.Execute()
}
