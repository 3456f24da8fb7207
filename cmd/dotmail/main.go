// cmd/dotmail/main.go
package main

import "github.com/dalemusser/dotmail/internal/cli"

func main() {
	cli.Execute()
}
