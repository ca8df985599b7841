package main

import "github.com/pennywise-app/apiserver/cmd"

func main() {
	cmd.Execute()
}
