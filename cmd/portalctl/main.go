package main

import "investment_portal/internal/cli"

func main() {
	cli.Execute()
}
