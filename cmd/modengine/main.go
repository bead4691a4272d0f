package main

import "github.com/Y4rd13/rippermod-manager-sub000/cmd/modengine/cmd"

func main() {
	cmd.Execute()
}
