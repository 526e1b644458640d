// Command pixeltime runs an RGB LED matrix as a network synchronised clock.
package main

import (
	_ "time/tzdata"
)

func main() {
	Execute()
}
