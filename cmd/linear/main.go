// Linear is a command-line client for the Linear issue tracker. GraphQL
// responses are cached on disk for a short TTL.
package main

import "os"

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}
