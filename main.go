// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/invowk/modcat/cmd/modcat"

func main() {
	cmd.Execute()
}
