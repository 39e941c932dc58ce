// Package main provides the rr-scope command line: it evaluates crawl candidate
// URLs against the configured admission rules and assigns them to queues.
package main

func main() {
	Execute()
}
