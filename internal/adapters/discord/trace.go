package discord

import (
	"log"
	"time"
)

// step mide cuánto tardó un tramo; usar con defer.
func step(label string) func() {
	start := time.Now()
	return func() { log.Printf("[trace] %s = %s", label, time.Since(start)) }
}
