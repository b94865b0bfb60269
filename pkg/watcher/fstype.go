package watcher

import (
	"os"
	"path/filepath"
	"strings"
)

// FilesystemType classifies the filesystem a source lives on. Remote
// and FUSE-backed filesystems do not deliver inotify events for writes
// made on other hosts, so the watcher polls there instead.
type FilesystemType int

const (
	FSTypeUnknown FilesystemType = iota
	FSTypeLocal
	FSTypeNFS
	FSTypeSMB
	FSTypeSSHFS
	FSTypeFUSE
)

func (t FilesystemType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeNFS:
		return "nfs"
	case FSTypeSMB:
		return "smb"
	case FSTypeSSHFS:
		return "sshfs"
	case FSTypeFUSE:
		return "fuse"
	default:
		return "unknown"
	}
}

// detectFilesystemTypeFunc is swappable in tests.
var detectFilesystemTypeFunc = detectFilesystemType

// DetectFilesystemType classifies the filesystem holding path. The
// classification is best-effort: on platforms without a readable mount
// table it returns FSTypeUnknown, which leaves fsnotify as the default
// mechanism.
func DetectFilesystemType(path string) FilesystemType {
	return detectFilesystemTypeFunc(path)
}

func detectFilesystemType(path string) FilesystemType {
	if path == "" {
		return FSTypeUnknown
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return FSTypeUnknown
	}

	// Climb to the nearest existing ancestor so a source that has not
	// been created yet classifies like its directory.
	probe := abs
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			return FSTypeUnknown
		}
		probe = parent
	}

	mounts, err := os.ReadFile("/proc/self/mounts")
	if err != nil {
		return FSTypeUnknown
	}
	return classifyMount(probe, string(mounts))
}

// classifyMount finds the longest mount point that is a path-boundary
// prefix of path in a mount table listing and maps its filesystem name.
func classifyMount(path, mounts string) FilesystemType {
	bestPoint := ""
	bestName := ""
	for _, line := range strings.Split(mounts, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		// Mount points with spaces appear octal-escaped in /proc.
		point := strings.ReplaceAll(fields[1], `\040`, " ")
		name := fields[2]

		if !strings.HasPrefix(path, point) {
			continue
		}
		if point != "/" && len(path) > len(point) && path[len(point)] != '/' {
			continue
		}
		if len(point) > len(bestPoint) {
			bestPoint, bestName = point, name
		}
	}
	if bestPoint == "" {
		return FSTypeUnknown
	}
	return classifyFSName(bestName)
}

func classifyFSName(name string) FilesystemType {
	switch {
	case strings.HasPrefix(name, "nfs"):
		return FSTypeNFS
	case name == "cifs" || name == "smbfs" || name == "smb3":
		return FSTypeSMB
	case name == "fuse.sshfs":
		return FSTypeSSHFS
	case strings.HasPrefix(name, "fuse"):
		return FSTypeFUSE
	default:
		return FSTypeLocal
	}
}

func isRemoteFilesystem(t FilesystemType) bool {
	switch t {
	case FSTypeNFS, FSTypeSMB, FSTypeSSHFS, FSTypeFUSE:
		return true
	default:
		return false
	}
}
