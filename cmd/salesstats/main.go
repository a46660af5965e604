package main

import "sales-stats/internal/cli"

func main() {
	cli.Execute()
}
