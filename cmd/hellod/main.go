// Command hellod answers every TCP connection with a fixed HTTP response.
package main

func main() {
	Execute()
}
