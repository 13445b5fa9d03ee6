package main

import "labelscan/process/sanitize"

func main() {
	sanitize.Run()
}
