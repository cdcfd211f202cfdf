// budgetctl edits a budget document file from the command line.
package main

import (
	"os"
)

func main() {
	os.Exit(execute())
}
