// Command vapidgen prints a fresh VAPID key pair in the environment
// variable form the service expects.
package main

import (
	"fmt"
	"os"

	"github.com/harwick/chime/internal/push"
)

func main() {
	publicKey, privateKey, err := push.GenerateVAPIDKeys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate VAPID keys: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("CHIME_VAPID_PUBLIC_KEY=%s\n", publicKey)
	fmt.Printf("CHIME_VAPID_PRIVATE_KEY=%s\n", privateKey)
}
