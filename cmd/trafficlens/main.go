// Command trafficlens runs the intrusion-detection dashboard or a
// one-shot analysis over traffic files.
package main

func main() {
	Execute()
}
