// Package main is the broadcast-service entry point (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/molla202/broadcast-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
