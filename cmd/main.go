package main

import (
	"github.com/resource-monitor/cmd/agent"
)

func main() {
	agent.Execute()
}
