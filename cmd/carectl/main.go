// carectl is the command-line client for the CareLink backend: caregiver and
// admin workflows over seniors, medications, dosing schedules, notifications,
// and push-token registration.
package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "carectl:", err)
		os.Exit(1)
	}
}
