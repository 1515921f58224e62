// Command vaultui serves the BGSC vault dashboard.
package main

import "github.com/bgsc/vaultui/cmd"

func main() {
	cmd.Execute()
}
