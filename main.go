// Command panostitch stitches overlapping images into a panorama.
package main

import (
	"panostitch/internal/cli"
)

func main() {
	cli.Execute()
}
