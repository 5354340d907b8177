// emoscan - live webcam emotion detection
//
// Reads webcam frames, finds the largest face, classifies its expression
// and smooths the result into a stable label.
//
// Usage:
//
//	emoscan serve              # web display on :8080
//	emoscan probe -n 300       # headless run, prints a summary
//	emoscan watch              # follow a running server's results
package main

func main() {
	Execute()
}
