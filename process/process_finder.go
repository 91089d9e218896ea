package process

// ProcessFinder defines operations for discovering processes
type ProcessFinder interface {
	// FindProcessByName finds processes by their executable name (exact match)
	FindProcessByName(name string) ([]ProcessInfo, error)
}

// Opener opens the first process matching an executable name.
type Opener func(name string) (Process, error)
