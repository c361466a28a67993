package constants_test

import (
	"fmt"
	"net/http"

	"github.com/ellisd4/tagsync/pkg/constants"
)

// Example demonstrates the defaults shared by the CLI and server.
func Example() {
	client := &http.Client{Timeout: constants.DefaultHTTPTimeout}

	fmt.Println(client.Timeout)
	fmt.Println(constants.DefaultSyncInterval)
	fmt.Printf("%o\n", constants.SecureFilePermissions)
	// Output:
	// 30s
	// 24h0m0s
	// 600
}
