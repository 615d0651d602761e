package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lumilearn/tutor-backend/internal/curriculum"
)

// validate-curriculum loads a curriculum directory with the same loader the
// server uses and reports what it finds. Run it in CI so a broken topic file
// fails the pipeline instead of the server boot.
func main() {
	var dir string
	flag.StringVar(&dir, "dir", "./problems/p6", "Curriculum directory to validate")
	flag.Parse()

	library, err := curriculum.LoadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, name := range library.Topics() {
		topic, _ := library.Topic(name)
		fmt.Printf("%s: %d steps, %d sections\n", name, len(topic.Steps), topic.SectionCount())
		for _, step := range topic.Steps {
			fmt.Printf("  step %d (%s): %d sections\n", step.Ordinal, step.Meta.Title, len(step.Sections))
		}
	}
	fmt.Println("Curriculum OK")
}
