package process

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessInfo contains basic information about a process
type ProcessInfo struct {
	PID   ProcessID // Process ID
	Name  string    // Process name from /proc/[pid]/comm
	Exe   string    // Path to the executable
	Argv0 string    // First command line argument, used for Wine hosted executables
}
