// gensecret prints random hex key suitable for SECRET_KEY
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const SecretKeyBytesLen = 32

func run(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	n := fs.IntP("bytes", "n", SecretKeyBytesLen, "Key length in bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n < 16 {
		return fmt.Errorf("key should be at least 16 bytes, got %d", *n)
	}

	b := make([]byte, *n)
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("error while generating secret key: %w", err)
	}

	_, err := fmt.Fprintln(out, hex.EncodeToString(b))
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err) // nolint:errcheck
		os.Exit(1)
	}
}
