// Command mkpass derives a salt and scrypt hash for a password, for
// seeding user records in db.json by hand.
package main

import (
	"fmt"
	"os"

	"github.com/eldtechnologies/chat4office/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: mkpass <password>")
		os.Exit(1)
	}

	salt, err := auth.NewSalt()
	if err != nil {
		fmt.Fprintln(os.Stderr, "mkpass:", err)
		os.Exit(1)
	}
	hash, err := auth.HashPassword(os.Args[1], salt)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mkpass:", err)
		os.Exit(1)
	}

	fmt.Printf("pwSalt: %s\npwHash: %s\n", salt, hash)
}
