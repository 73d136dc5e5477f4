// Package cmd provides CLI commands for ragstack.
//
// Commands:
//   - setup / start / stop / clean: service lifecycle via docker compose
//   - add-sample-data / add-all-data: knowledge base loading
//   - chat: interactive terminal chat against the stack
//   - streamlit: launch the web UI
//
// Signal handling and graceful shutdown are implemented for all commands
// via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// Execute is the main entry point for the ragstack CLI application.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "start":
		return runStart()
	case "stop":
		return runStop()
	case "setup":
		return runSetup()
	case "install":
		return runInstall()
	case "add-sample-data":
		return runAddSampleData()
	case "add-all-data":
		return runAddAllData()
	case "chat":
		return runChat()
	case "streamlit":
		return runStreamlit()
	case "status":
		return runStatus()
	case "clean":
		return runClean()
	case "quick-start":
		return runQuickStart()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		// Unknown commands get the help text, not an error: the demo
		// favors pointing people at the right invocation over failing.
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		runHelp()
		return nil
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("ragstack - Operate the retrieval-augmented chatbot demo")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ragstack quick-start       Setup plus sample data in one step")
	fmt.Println("  ragstack setup             Install dependencies, start services, wait until ready")
	fmt.Println("  ragstack start             Start the docker compose services")
	fmt.Println("  ragstack stop              Stop the services (volumes are kept)")
	fmt.Println("  ragstack status            Show service and readiness status")
	fmt.Println("  ragstack clean             Stop the services and remove their volumes")
	fmt.Println("  ragstack install           Install the Python UI dependencies")
	fmt.Println("  ragstack add-sample-data   Load the built-in sample documents")
	fmt.Println("  ragstack add-all-data      Load every .txt/.md file from the data directory")
	fmt.Println("  ragstack chat              Start interactive chat mode")
	fmt.Println("  ragstack streamlit         Launch the Streamlit web UI")
	fmt.Println("  ragstack --version         Show version information")
	fmt.Println("  ragstack --help            Show this help")
	fmt.Println()
	fmt.Println("Chat commands (in interactive mode):")
	fmt.Println("  add_file <path>    Index a text file")
	fmt.Println("  clear              Empty the knowledge base")
	fmt.Println("  quit, exit         Leave the chat")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  OPENAI_API_KEY     Required for chat: OpenAI-compatible API key")
	fmt.Println("  BASE_URL           Optional: OpenAI-compatible endpoint override")
	fmt.Println("  DEBUG              Optional: Enable debug logging")
}
