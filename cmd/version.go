package cmd

import (
	"fmt"
	"os"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

func runVersion() {
	fmt.Printf("ragstack %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	// Check API Key from environment (don't display full content)
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey != "" && len(apiKey) > 8 {
		fmt.Printf("OPENAI_API_KEY: %s...%s (configured)\n", apiKey[:4], apiKey[len(apiKey)-4:])
	} else if apiKey != "" {
		fmt.Println("OPENAI_API_KEY: configured")
	} else {
		fmt.Println("OPENAI_API_KEY: Not set")
		fmt.Println()
		fmt.Println("Hint: set it before using chat:")
		fmt.Println("  export OPENAI_API_KEY=your-api-key")
	}
}
