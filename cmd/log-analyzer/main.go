// log-analyzer builds a report of the slowest URLs from the latest nginx access log.
package main

import (
	"os"

	"log-analyzer/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
