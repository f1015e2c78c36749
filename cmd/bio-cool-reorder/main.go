package main

// bio-cool-reorder rewrites a contact matrix container so that chromosomes
// are inverted or moved, e.g., to follow a corrected genome assembly.
//
// Usage: bio-cool-reorder {invert|move|validate|checksum|dump|import} ...

import "github.com/grailbio/contact/cmd/bio-cool-reorder/cmd"

func main() {
	cmd.Run()
}
