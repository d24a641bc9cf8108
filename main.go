// SPDX-License-Identifier: MIT
package main

import "github.com/skaphos/testbed/cmd/testbed"

// execute is overridable in tests.
var execute = testbed.Execute

func main() {
	execute()
}
