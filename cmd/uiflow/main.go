// Package main is the uiflow command line: it runs the built-in Creator OS
// scenarios and YAML flow scripts against a deployment and reports a
// verdict per scenario.
package main

func main() {
	Execute()
}
