package main

import "github.com/charliek/woconsole/internal/cli"

func main() {
	cli.Execute()
}
