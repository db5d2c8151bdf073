// Command regbridge compiles, matches and substitutes patterns through the
// handle bridge, for inspecting how a pattern behaves on UTF-16 text.
package main

func main() {
	execute()
}
