package main

import "github.com/shawnli329/SLTMX-Editor/internal/cli"

func main() {
	cli.Execute()
}
