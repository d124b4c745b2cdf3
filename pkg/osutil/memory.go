package osutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

// The cgroup v1 default for limit_in_bytes, meaning memory is unrestricted.
// See https://unix.stackexchange.com/questions/420906/what-is-the-value-for-the-cgroups-limit-in-bytes-if-the-memory-is-not-restricte
const unrestrictedMemoryLimit = 9223372036854771712

// Container memory limits for cgroup v1 and v2 hosts
var cgroupMemoryLimitLocations = []string{
	"/sys/fs/cgroup/memory/memory.limit_in_bytes",
	"/sys/fs/cgroup/memory.max",
}

// maxBallastCapacity caps the ballast at half of the available memory
const maxBallastCapacity = 0.5

// GetTotalMemory returns the total available memory size. The call is
// container-aware.
func GetTotalMemory() uint64 {
	totalMemory := memory.TotalMemory()
	for _, location := range cgroupMemoryLimitLocations {
		if limit, ok := readMemoryLimit(location); ok && limit < totalMemory {
			return limit
		}
	}
	return totalMemory
}

// GetBallastSize returns the size of a GC ballast taking up capacity of the
// total available memory.
func GetBallastSize(capacity float32) uint64 {
	return ballastSize(GetTotalMemory(), capacity)
}

func ballastSize(totalMemory uint64, capacity float32) uint64 {
	if capacity <= 0 {
		return 0
	}
	if capacity > maxBallastCapacity {
		capacity = maxBallastCapacity
	}
	return uint64(float64(capacity) * float64(totalMemory))
}

// readMemoryLimit parses a cgroup memory limit file. Unrestricted limits ("max"
// on v2, the sentinel value on v1) are reported as not ok.
func readMemoryLimit(location string) (uint64, bool) {
	raw, err := os.ReadFile(location)
	if err != nil {
		return 0, false
	}

	value := strings.TrimSpace(string(raw))
	if value == "max" {
		return 0, false
	}

	limit, err := strconv.ParseUint(value, 10, 64)
	if err != nil || limit == 0 || limit == unrestrictedMemoryLimit {
		return 0, false
	}
	return limit, true
}
