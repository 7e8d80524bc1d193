// Command metadata-cache runs the album metadata ingestion service.
package main

import "github.com/rain0r/spotify-metadata-cache/cmd"

func main() {
	cmd.Execute()
}
