// File: cmd/s3client/main.go
package main

import (
	"os"

	// Explicitly import provider implementations to ensure their init() functions run and they register themselves
	_ "s3client/internal/provider"
)

func main() {
	os.Exit(Execute())
}
