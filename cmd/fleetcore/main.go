// Command fleetcore is the CLI entrypoint around the fleet scheduling core:
// run an optimization job against a route file, or warm the router's
// persistent travel-time cache ahead of time.
package main

func main() {
	Execute()
}
