// Command virtualsim drives the virtualization engine against a
// synthetic scroll workload and reports what the engine did. It exists
// to exercise tuning changes without a host UI attached.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
