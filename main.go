package main

import "magus/internal/magus"

func main() {
	magus.Main()
}
