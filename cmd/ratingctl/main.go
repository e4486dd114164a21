// Command ratingctl runs the rating building blocks locally: chunking and
// term scanning offline, full rating against a SQLite store, and cache upkeep.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
