// File: cmd/s3client/output.go
package main

import "fmt"

// Writes formatter output, passing through formatter errors
func (a *appContainer) render(out string, err error) error {
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.Out, out)
	return err
}
