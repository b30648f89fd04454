package main

import "campaign_agent/internal/cli"

func main() {
	cli.Execute()
}
