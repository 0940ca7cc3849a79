package filesystem

import (
	"os"
)

// Checker reads files using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// ReadFile reads a whole file
func (c *Checker) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
