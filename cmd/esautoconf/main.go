// Command esautoconf resolves the Elasticsearch auto-configuration against a
// set of properties and prints what was registered and why.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
