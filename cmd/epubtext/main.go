// Command epubtext extracts the narrative text of ePub archives into plain
// text files.
package main

import "os"

func main() {
	os.Exit(execute())
}
